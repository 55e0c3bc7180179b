package model

import (
    "strings"
    "time"
)

// EventStatus is the sale status recorded by the backend for an event.
// An event moves from available to blocked exactly once.
type EventStatus string

const (
    StatusAvailable EventStatus = "available"
    StatusBlocked   EventStatus = "blocked"
)

// MenuMoment is a scheduled meal within an event where every buyer has to
// pick one of MenuOptions.  DateTime is kept as the raw string sent by the
// backend because it doubles as the key of Sale.SelectedMenus.
type MenuMoment struct {
    DateTime    string   `json:"dateTime"`
    MenuOptions []string `json:"menuOptions"`
}

// Key returns the SelectedMenus key for this moment.
func (m MenuMoment) Key() string { return m.DateTime }

// Time parses DateTime.  Keys written by older clients replace "T" and "Z"
// with "_t" and "_z"; both spellings are accepted.
func (m MenuMoment) Time() (time.Time, bool) { return ParseMomentKey(m.DateTime) }

// HasOption reports whether opt is one of the moment's menu options.
func (m MenuMoment) HasOption(opt string) bool {
    for _, o := range m.MenuOptions {
        if o == opt {
            return true
        }
    }
    return false
}

// ParseMomentKey decodes a menu moment key into an instant.
func ParseMomentKey(key string) (time.Time, bool) {
    fixed := strings.Replace(strings.Replace(key, "_t", "T", 1), "_z", "Z", 1)
    for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04"} {
        if t, err := time.Parse(layout, fixed); err == nil {
            return t, true
        }
    }
    return time.Time{}, false
}

// Event is a sellable occasion with a finite capacity and a purchase
// deadline, as returned by GET /api/events and GET /api/events/:id.
//
// Fields:
//  ID              – backend identifier (_id).
//  Name            – display name used in listings and manual messages.
//  Capacity        – number of tickets that may be sold (>= 0).
//  StartDate       – when the event starts.
//  EndPurchaseDate – last instant at which tickets may be bought.
//  Price           – ticket price in the gateway currency.
//  HasMenu         – whether buyers must choose a menu per MenuMoment.
//  MenuMoments     – ordered meal choice points.
//  Status          – available or blocked.
//  UpdatedAt       – instant of the last status change.
//  CreatedBy       – organizer id, used to look up the gateway public key.
type Event struct {
    ID              string       `json:"_id"`
    Name            string       `json:"name"`
    Description     string       `json:"description,omitempty"`
    Location        string       `json:"location,omitempty"`
    CoverImage      string       `json:"coverImage,omitempty"`
    Capacity        int          `json:"capacity"`
    StartDate       time.Time    `json:"startDate"`
    EndPurchaseDate time.Time    `json:"endPurchaseDate"`
    Price           float64      `json:"price"`
    HasMenu         bool         `json:"hasMenu"`
    MenuMoments     []MenuMoment `json:"menuMoments"`
    Status          EventStatus  `json:"status"`
    UpdatedAt       time.Time    `json:"updatedAt"`
    CreatedBy       string       `json:"createdBy,omitempty"`
}

// RequiresMenus reports whether a sale for this event must carry one menu
// choice per moment.
func (e Event) RequiresMenus() bool { return e.HasMenu && len(e.MenuMoments) > 0 }

// IsBlocked reports whether the backend already recorded the event as blocked.
func (e Event) IsBlocked() bool { return e.Status == StatusBlocked }

// Package checkout reconciles the buyer-entry form with the payment
// gateway: it requests a payment preference only when the validated form
// content actually changed, and it builds the manual-channel message for
// buyers who pay by transfer or cash.
package checkout

import (
    "errors"
    "strings"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ErrInvalidForm is returned by operations that need a complete form.
var ErrInvalidForm = errors.New("checkout: form incomplete")

// BuyerForm is the current content of the checkout form.
type BuyerForm struct {
    model.Buyer
    SelectedMenus map[string]string `json:"selectedMenus"`
}

// Valid reports whether every buyer field is filled in and, for events
// with menus, every menu moment has a choice.
func (f BuyerForm) Valid(ev model.Event) bool {
    if f.Buyer.Validate() != nil {
        return false
    }
    if !ev.RequiresMenus() {
        return true
    }
    for _, m := range ev.MenuMoments {
        if strings.TrimSpace(f.SelectedMenus[m.Key()]) == "" {
            return false
        }
    }
    return true
}

func (f BuyerForm) preferenceRequest(ev model.Event) backend.PreferenceRequest {
    menus := make(map[string]string, len(f.SelectedMenus))
    for k, v := range f.SelectedMenus {
        menus[k] = v
    }
    return backend.PreferenceRequest{
        EventID:       ev.ID,
        Price:         ev.Price,
        Name:          f.Name,
        LastName:      f.LastName,
        Email:         f.Email,
        Tel:           f.Tel,
        SelectedMenus: menus,
    }
}

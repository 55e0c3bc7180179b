// Package staff implements the organizer tools around an event's sales:
// searching the sales list, recording transfer/cash sales, the menu
// summary and the overall statistics.  Every operation needs a staff
// auth.Context and acts with its backend token.
package staff

import (
    "context"
    "errors"
    "fmt"
    "log"
    "math"
    "sort"
    "strings"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
    "github.com/iliyamo/event-ticket-storefront/internal/queue"
)

// ErrForbidden is returned for callers without a staff session.
var ErrForbidden = errors.New("staff: staff session required")

// Backend is the part of the ledger the staff tools use.
type Backend interface {
    GetEvent(ctx context.Context, id string) (model.Event, error)
    EventSales(ctx context.Context, eventID, token string) (model.EventSales, error)
    CreateManualSale(ctx context.Context, token string, req backend.ManualSaleRequest) (string, error)
    Stats(ctx context.Context, token string) ([]model.EventStat, error)
}

// Publisher publishes storefront activity.
type Publisher interface {
    Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Service runs the staff operations.
type Service struct {
    backend   Backend
    publisher Publisher
    loc       *time.Location
}

// NewService returns a Service.  Dates are rendered in loc; pub may be nil.
func NewService(b Backend, pub Publisher, loc *time.Location) *Service {
    if loc == nil {
        loc = time.UTC
    }
    return &Service{backend: b, publisher: pub, loc: loc}
}

// MenuLine is one menu choice of a sale in readable form.
type MenuLine struct {
    Moment string `json:"moment"`
    When   string `json:"when"`
    Option string `json:"option"`
}

// SaleRow is one sale as listed to staff.
type SaleRow struct {
    model.Sale
    ChannelLabel string     `json:"channelLabel"`
    Highlighted  bool       `json:"highlighted"`
    Menus        []MenuLine `json:"menus"`
}

// SalesView is the sales list of one event after search and highlight.
type SalesView struct {
    EventName string    `json:"eventName"`
    Query     string    `json:"query"`
    Total     int       `json:"total"`
    Sales     []SaleRow `json:"sales"`
}

// Sales lists the sales of an event.  See FilterSales for query and
// highlight handling.
func (s *Service) Sales(ctx context.Context, ac auth.Context, eventID, query, highlight string) (SalesView, error) {
    if !ac.IsStaff() {
        return SalesView{}, ErrForbidden
    }
    es, err := s.backend.EventSales(ctx, eventID, ac.BackendToken)
    if err != nil {
        return SalesView{}, fmt.Errorf("event sales %s: %w", eventID, err)
    }
    rows, q := FilterSales(es.Sales, query, highlight)
    view := SalesView{EventName: es.EventName, Query: q, Total: len(es.Sales), Sales: make([]SaleRow, 0, len(rows))}
    for _, sale := range rows {
        view.Sales = append(view.Sales, SaleRow{
            Sale:         sale,
            ChannelLabel: sale.Channel.Label(),
            Highlighted:  highlight != "" && sale.ID == highlight,
            Menus:        MenuLines(sale.SelectedMenus, s.loc),
        })
    }
    return view, nil
}

// FilterSales moves the highlighted sale to the front and keeps the sales
// whose "name lastName" contains query, case-insensitively.  When a
// highlighted sale exists and query is blank, the query becomes that
// buyer's full name.  It returns the sales and the query applied.
func FilterSales(sales []model.Sale, query, highlight string) ([]model.Sale, string) {
    ordered := make([]model.Sale, 0, len(sales))
    hi := -1
    if highlight != "" {
        for i, sale := range sales {
            if sale.ID == highlight {
                hi = i
                break
            }
        }
    }
    if hi >= 0 {
        ordered = append(ordered, sales[hi])
        if strings.TrimSpace(query) == "" {
            query = sales[hi].Name + " " + sales[hi].LastName
        }
    }
    for i, sale := range sales {
        if i != hi {
            ordered = append(ordered, sale)
        }
    }

    needle := strings.ToLower(strings.TrimSpace(query))
    if needle == "" {
        return ordered, query
    }
    out := make([]model.Sale, 0, len(ordered))
    for _, sale := range ordered {
        full := strings.ToLower(sale.Name + " " + sale.LastName)
        if strings.Contains(full, needle) {
            out = append(out, sale)
        }
    }
    return out, query
}

// MenuLines renders a sale's menu choices ordered by moment.  Keys that
// are not dates render as "Fecha inválida".
func MenuLines(selected map[string]string, loc *time.Location) []MenuLine {
    keys := make([]string, 0, len(selected))
    for k := range selected {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    lines := make([]MenuLine, 0, len(keys))
    for _, k := range keys {
        when := "Fecha inválida"
        if t, ok := model.ParseMomentKey(k); ok {
            when = t.In(loc).Format("02/01/2006, 15:04")
        }
        lines = append(lines, MenuLine{Moment: k, When: when, Option: selected[k]})
    }
    return lines
}

// ManualSaleForm is what staff enters for a transfer/cash sale.
type ManualSaleForm struct {
    model.Buyer
    SelectedMenus map[string]string `json:"selectedMenus"`
}

// RecordManualSale validates the form against the event and records the
// sale in the ledger.  Capacity is consumed here and not when the buyer
// sent their message.  It returns the new transaction id.
func (s *Service) RecordManualSale(ctx context.Context, ac auth.Context, eventID string, form ManualSaleForm) (string, error) {
    if !ac.IsStaff() {
        return "", ErrForbidden
    }
    if err := form.Buyer.Validate(); err != nil {
        return "", err
    }
    ev, err := s.backend.GetEvent(ctx, eventID)
    if err != nil {
        return "", fmt.Errorf("get event %s: %w", eventID, err)
    }
    if form.SelectedMenus == nil {
        form.SelectedMenus = map[string]string{}
    }
    if err := model.ValidateMenus(ev, form.SelectedMenus); err != nil {
        return "", err
    }

    id, err := s.backend.CreateManualSale(ctx, ac.BackendToken, backend.ManualSaleRequest{
        Buyer:         form.Buyer,
        EventID:       ev.ID,
        SelectedMenus: form.SelectedMenus,
    })
    if err != nil {
        return "", fmt.Errorf("create manual sale: %w", err)
    }
    log.Printf("staff: manual sale %s recorded for event %s by %s", id, ev.ID, ac.Subject)
    if s.publisher != nil {
        _ = s.publisher.Publish(ctx, queue.ActivityEvent{
            Type:          queue.SaleManual,
            EventID:       ev.ID,
            TransactionID: id,
            Actor:         ac.Subject,
        })
    }
    return id, nil
}

// MenuCount is how many times one option was chosen.
type MenuCount struct {
    Option  string  `json:"option"`
    Count   int     `json:"count"`
    Percent float64 `json:"percent"`
}

// MenuSummary aggregates the menu choices of an event's sales.
type MenuSummary struct {
    EventName string      `json:"eventName"`
    Total     int         `json:"total"`
    Top       *MenuCount  `json:"top,omitempty"`
    Items     []MenuCount `json:"items"`
}

// MenuSummary counts every chosen option across the event's sales.
func (s *Service) MenuSummary(ctx context.Context, ac auth.Context, eventID string) (MenuSummary, error) {
    if !ac.IsStaff() {
        return MenuSummary{}, ErrForbidden
    }
    es, err := s.backend.EventSales(ctx, eventID, ac.BackendToken)
    if err != nil {
        return MenuSummary{}, fmt.Errorf("event sales %s: %w", eventID, err)
    }
    sum := SummarizeMenus(es.Sales)
    sum.EventName = es.EventName
    return sum, nil
}

// SummarizeMenus counts options, most chosen first (ties by name), with
// the share of the total rounded to one decimal.
func SummarizeMenus(sales []model.Sale) MenuSummary {
    counts := map[string]int{}
    total := 0
    for _, sale := range sales {
        for _, opt := range sale.SelectedMenus {
            if opt == "" {
                continue
            }
            counts[opt]++
            total++
        }
    }
    items := make([]MenuCount, 0, len(counts))
    for opt, n := range counts {
        items = append(items, MenuCount{
            Option:  opt,
            Count:   n,
            Percent: math.Round(float64(n)/float64(total)*1000) / 10,
        })
    }
    sort.Slice(items, func(i, j int) bool {
        if items[i].Count != items[j].Count {
            return items[i].Count > items[j].Count
        }
        return items[i].Option < items[j].Option
    })
    sum := MenuSummary{Total: total, Items: items}
    if len(items) > 0 {
        top := items[0]
        sum.Top = &top
    }
    return sum
}

// Stats is the organizer dashboard: per-event totals plus grand totals.
type Stats struct {
    Events            []model.EventStat `json:"events"`
    TotalTransactions int               `json:"totalTransactions"`
    TotalIncome       float64           `json:"totalIncome"`
}

// Stats returns sales statistics for every event.
func (s *Service) Stats(ctx context.Context, ac auth.Context) (Stats, error) {
    if !ac.IsStaff() {
        return Stats{}, ErrForbidden
    }
    rows, err := s.backend.Stats(ctx, ac.BackendToken)
    if err != nil {
        return Stats{}, fmt.Errorf("stats: %w", err)
    }
    st := Stats{Events: rows}
    if st.Events == nil {
        st.Events = []model.EventStat{}
    }
    for _, r := range rows {
        st.TotalTransactions += r.TransactionCount
        st.TotalIncome += r.TotalIncome
    }
    return st, nil
}

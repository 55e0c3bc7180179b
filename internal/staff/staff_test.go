package staff

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
    "github.com/iliyamo/event-ticket-storefront/internal/queue"
)

type fakeBackend struct {
    event    model.Event
    sales    model.EventSales
    stats    []model.EventStat
    created  []backend.ManualSaleRequest
    tokens   []string
    salesErr error
}

func (f *fakeBackend) GetEvent(_ context.Context, id string) (model.Event, error) {
    if id != f.event.ID {
        return model.Event{}, backend.ErrNotFound
    }
    return f.event, nil
}

func (f *fakeBackend) EventSales(_ context.Context, _ string, token string) (model.EventSales, error) {
    f.tokens = append(f.tokens, token)
    return f.sales, f.salesErr
}

func (f *fakeBackend) CreateManualSale(_ context.Context, token string, req backend.ManualSaleRequest) (string, error) {
    f.tokens = append(f.tokens, token)
    f.created = append(f.created, req)
    return "tx-new", nil
}

func (f *fakeBackend) Stats(_ context.Context, token string) ([]model.EventStat, error) {
    f.tokens = append(f.tokens, token)
    return f.stats, nil
}

type memPublisher struct{ events []queue.ActivityEvent }

func (p *memPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
    p.events = append(p.events, ev)
    return nil
}

var staffCtx = auth.Context{Subject: "org@example.com", Role: auth.RoleStaff, SessionID: "s", BackendToken: "tok"}

func sale(id, name, last string, ch model.Channel, menus map[string]string) model.Sale {
    return model.Sale{ID: id, EventID: "ev1", Buyer: model.Buyer{Name: name, LastName: last}, Channel: ch, SelectedMenus: menus}
}

func TestFilterSales(t *testing.T) {
    t.Parallel()
    sales := []model.Sale{
        sale("1", "Ana", "Gómez", model.ChannelGateway, nil),
        sale("2", "Luis", "Pérez", model.ChannelManual, nil),
        sale("3", "Ana", "Pérez", model.ChannelGateway, nil),
    }

    tests := []struct {
        name      string
        query     string
        highlight string
        wantIDs   []string
        wantQuery string
    }{
        {"no filter", "", "", []string{"1", "2", "3"}, ""},
        {"case insensitive", "  PÉREZ ", "", []string{"2", "3"}, "  PÉREZ "},
        {"full name", "ana gómez", "", []string{"1"}, "ana gómez"},
        {"highlight sets query", "", "3", []string{"3"}, "Ana Pérez"},
        {"highlight first with query", "ana", "3", []string{"3", "1"}, "ana"},
        {"unknown highlight", "", "9", []string{"1", "2", "3"}, ""},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            got, q := FilterSales(sales, tt.query, tt.highlight)
            if q != tt.wantQuery {
                t.Fatalf("query = %q, want %q", q, tt.wantQuery)
            }
            if len(got) != len(tt.wantIDs) {
                t.Fatalf("got %d sales, want %v", len(got), tt.wantIDs)
            }
            for i, id := range tt.wantIDs {
                if got[i].ID != id {
                    t.Fatalf("sale %d = %s, want %s", i, got[i].ID, id)
                }
            }
        })
    }
}

func TestSalesView(t *testing.T) {
    t.Parallel()
    fb := &fakeBackend{sales: model.EventSales{EventName: "Cena", Sales: []model.Sale{
        sale("1", "Ana", "Gómez", model.ChannelManual, map[string]string{"2026-11-20_t21:00:00_z": "Carne", "raro": "Pasta"}),
    }}}
    s := NewService(fb, nil, time.UTC)

    v, err := s.Sales(context.Background(), staffCtx, "ev1", "", "1")
    if err != nil {
        t.Fatalf("Sales: %v", err)
    }
    if v.EventName != "Cena" || v.Total != 1 || len(v.Sales) != 1 {
        t.Fatalf("view = %+v", v)
    }
    row := v.Sales[0]
    if row.ChannelLabel != "Transferencia/Efectivo" || !row.Highlighted {
        t.Fatalf("row = %+v", row)
    }
    want := []MenuLine{
        {Moment: "2026-11-20_t21:00:00_z", When: "20/11/2026, 21:00", Option: "Carne"},
        {Moment: "raro", When: "Fecha inválida", Option: "Pasta"},
    }
    if len(row.Menus) != len(want) {
        t.Fatalf("menus = %+v", row.Menus)
    }
    for i := range want {
        if row.Menus[i] != want[i] {
            t.Fatalf("menu %d = %+v, want %+v", i, row.Menus[i], want[i])
        }
    }
    if fb.tokens[0] != "tok" {
        t.Fatalf("backend token = %q", fb.tokens[0])
    }
}

func TestOperationsRequireStaff(t *testing.T) {
    t.Parallel()
    s := NewService(&fakeBackend{}, nil, nil)
    ctx := context.Background()
    anon := auth.Context{}

    if _, err := s.Sales(ctx, anon, "ev1", "", ""); !errors.Is(err, ErrForbidden) {
        t.Fatalf("Sales err = %v", err)
    }
    if _, err := s.RecordManualSale(ctx, anon, "ev1", ManualSaleForm{}); !errors.Is(err, ErrForbidden) {
        t.Fatalf("RecordManualSale err = %v", err)
    }
    if _, err := s.MenuSummary(ctx, anon, "ev1"); !errors.Is(err, ErrForbidden) {
        t.Fatalf("MenuSummary err = %v", err)
    }
    if _, err := s.Stats(ctx, anon); !errors.Is(err, ErrForbidden) {
        t.Fatalf("Stats err = %v", err)
    }
}

func TestRecordManualSale(t *testing.T) {
    t.Parallel()
    ev := model.Event{
        ID:      "ev1",
        HasMenu: true,
        MenuMoments: []model.MenuMoment{
            {DateTime: "2026-11-20T21:00:00Z", MenuOptions: []string{"Carne", "Vegetariano"}},
        },
    }
    buyer := model.Buyer{Name: "Ana", LastName: "Gómez", Email: "ana@example.com", Tel: "1155550000"}
    ctx := context.Background()

    t.Run("valid", func(t *testing.T) {
        t.Parallel()
        fb := &fakeBackend{event: ev}
        pub := &memPublisher{}
        s := NewService(fb, pub, nil)
        id, err := s.RecordManualSale(ctx, staffCtx, "ev1", ManualSaleForm{
            Buyer:         buyer,
            SelectedMenus: map[string]string{"2026-11-20T21:00:00Z": "Vegetariano"},
        })
        if err != nil || id != "tx-new" {
            t.Fatalf("RecordManualSale = %q, %v", id, err)
        }
        if len(fb.created) != 1 || fb.created[0].EventID != "ev1" || fb.created[0].Email != buyer.Email {
            t.Fatalf("created = %+v", fb.created)
        }
        if len(pub.events) != 1 || pub.events[0].Type != queue.SaleManual || pub.events[0].TransactionID != "tx-new" {
            t.Fatalf("published = %+v", pub.events)
        }
    })

    t.Run("invalid menu", func(t *testing.T) {
        t.Parallel()
        fb := &fakeBackend{event: ev}
        s := NewService(fb, nil, nil)
        _, err := s.RecordManualSale(ctx, staffCtx, "ev1", ManualSaleForm{
            Buyer:         buyer,
            SelectedMenus: map[string]string{"2026-11-20T21:00:00Z": "Pescado"},
        })
        if !errors.Is(err, model.ErrMenuSelection) {
            t.Fatalf("err = %v, want ErrMenuSelection", err)
        }
        if len(fb.created) != 0 {
            t.Fatal("invalid sale reached the backend")
        }
    })

    t.Run("missing buyer field", func(t *testing.T) {
        t.Parallel()
        fb := &fakeBackend{event: ev}
        s := NewService(fb, nil, nil)
        b := buyer
        b.Tel = ""
        if _, err := s.RecordManualSale(ctx, staffCtx, "ev1", ManualSaleForm{Buyer: b}); !errors.Is(err, model.ErrMissingBuyerField) {
            t.Fatalf("err = %v", err)
        }
    })
}

func TestSummarizeMenus(t *testing.T) {
    t.Parallel()
    sales := []model.Sale{
        sale("1", "a", "a", model.ChannelGateway, map[string]string{"m1": "Carne", "m2": "Pasta"}),
        sale("2", "b", "b", model.ChannelGateway, map[string]string{"m1": "Carne", "m2": ""}),
        sale("3", "c", "c", model.ChannelManual, map[string]string{"m1": "Vegetariano"}),
    }
    sum := SummarizeMenus(sales)
    if sum.Total != 4 {
        t.Fatalf("total = %d, want 4", sum.Total)
    }
    want := []MenuCount{
        {Option: "Carne", Count: 2, Percent: 50},
        {Option: "Pasta", Count: 1, Percent: 25},
        {Option: "Vegetariano", Count: 1, Percent: 25},
    }
    for i := range want {
        if sum.Items[i] != want[i] {
            t.Fatalf("item %d = %+v, want %+v", i, sum.Items[i], want[i])
        }
    }
    if sum.Top == nil || sum.Top.Option != "Carne" {
        t.Fatalf("top = %+v", sum.Top)
    }

    if empty := SummarizeMenus(nil); empty.Top != nil || empty.Total != 0 || len(empty.Items) != 0 {
        t.Fatalf("empty summary = %+v", empty)
    }
}

func TestSummarizeMenusRoundsToOneDecimal(t *testing.T) {
    t.Parallel()
    sales := []model.Sale{
        sale("1", "a", "a", model.ChannelGateway, map[string]string{"m": "A"}),
        sale("2", "b", "b", model.ChannelGateway, map[string]string{"m": "B"}),
        sale("3", "c", "c", model.ChannelGateway, map[string]string{"m": "B"}),
    }
    sum := SummarizeMenus(sales)
    if sum.Items[0].Percent != 66.7 || sum.Items[1].Percent != 33.3 {
        t.Fatalf("items = %+v", sum.Items)
    }
}

func TestStatsTotals(t *testing.T) {
    t.Parallel()
    fb := &fakeBackend{stats: []model.EventStat{
        {ID: "Cena", TransactionCount: 3, TotalIncome: 7500},
        {ID: "Charla", TransactionCount: 2, TotalIncome: 1000},
    }}
    s := NewService(fb, nil, nil)
    st, err := s.Stats(context.Background(), staffCtx)
    if err != nil {
        t.Fatalf("Stats: %v", err)
    }
    if st.TotalTransactions != 5 || st.TotalIncome != 8500 || len(st.Events) != 2 {
        t.Fatalf("stats = %+v", st)
    }
}

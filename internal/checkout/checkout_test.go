package checkout

import (
    "context"
    "errors"
    "net/url"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

type pendingCall struct {
    req  backend.PreferenceRequest
    resp chan result
}

type result struct {
    id  string
    err error
}

// gatedCreator hands every call to the test through started and blocks
// until the test answers on the call's resp channel.
type gatedCreator struct {
    started chan *pendingCall
}

func newGatedCreator() *gatedCreator {
    return &gatedCreator{started: make(chan *pendingCall, 16)}
}

func (g *gatedCreator) CreatePreference(ctx context.Context, req backend.PreferenceRequest) (string, error) {
    c := &pendingCall{req: req, resp: make(chan result, 1)}
    g.started <- c
    select {
    case r := <-c.resp:
        return r.id, r.err
    case <-ctx.Done():
        return "", ctx.Err()
    }
}

func (g *gatedCreator) next(t *testing.T) *pendingCall {
    t.Helper()
    select {
    case c := <-g.started:
        return c
    case <-time.After(2 * time.Second):
        t.Fatal("no preference request issued")
        return nil
    }
}

// instantCreator answers immediately with a counter-based id.
type instantCreator struct {
    mu    sync.Mutex
    calls int
    err   error
}

func (c *instantCreator) CreatePreference(context.Context, backend.PreferenceRequest) (string, error) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.calls++
    if c.err != nil {
        return "", c.err
    }
    return "pref-" + string(rune('0'+c.calls)), nil
}

func menuEvent() model.Event {
    return model.Event{
        ID:       "ev1",
        Name:     "Cena de gala",
        Capacity: 100,
        Price:    2500,
        HasMenu:  true,
        MenuMoments: []model.MenuMoment{
            {DateTime: "2026-11-20T21:00:00Z", MenuOptions: []string{"Carne", "Vegetariano"}},
            {DateTime: "2026-11-21T13:30:00Z", MenuOptions: []string{"Pasta", "Pescado"}},
        },
    }
}

func fullForm() BuyerForm {
    return BuyerForm{
        Buyer: model.Buyer{Name: "Ana", LastName: "Gómez", Email: "ana@example.com", Tel: "1155550000"},
        SelectedMenus: map[string]string{
            "2026-11-20T21:00:00Z": "Carne",
            "2026-11-21T13:30:00Z": "Pasta",
        },
    }
}

func testFingerprinter() *Fingerprinter { return NewFingerprinter([]byte("test-key")) }

func TestFormValid(t *testing.T) {
    t.Parallel()
    ev := menuEvent()

    missingMenu := fullForm()
    missingMenu.SelectedMenus = map[string]string{"2026-11-20T21:00:00Z": "Carne"}
    blankTel := fullForm()
    blankTel.Tel = "   "

    tests := []struct {
        name string
        form BuyerForm
        ev   model.Event
        want bool
    }{
        {"complete", fullForm(), ev, true},
        {"missing menu", missingMenu, ev, false},
        {"blank tel", blankTel, ev, false},
        {"no menus needed", BuyerForm{Buyer: fullForm().Buyer}, model.Event{ID: "x"}, true},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            if got := tt.form.Valid(tt.ev); got != tt.want {
                t.Fatalf("Valid = %v, want %v", got, tt.want)
            }
        })
    }
}

func TestFingerprintStable(t *testing.T) {
    t.Parallel()
    fp := testFingerprinter()
    ev := menuEvent()

    a := fullForm().preferenceRequest(ev)
    b := fullForm().preferenceRequest(ev)
    if fp.Fingerprint(a) != fp.Fingerprint(b) {
        t.Fatal("identical content produced different fingerprints")
    }
    b.Email = "otra@example.com"
    if fp.Fingerprint(a) == fp.Fingerprint(b) {
        t.Fatal("changed email kept the same fingerprint")
    }
    other := NewFingerprinter([]byte("other-key"))
    if fp.Fingerprint(a) == other.Fingerprint(a) {
        t.Fatal("fingerprint does not depend on the key")
    }
}

func TestReconcilerIdenticalFormRequestsOnce(t *testing.T) {
    t.Parallel()
    creator := &instantCreator{}
    r := NewReconciler(menuEvent(), creator, testFingerprinter())
    defer r.Close()

    for i := 0; i < 5; i++ {
        r.Update(fullForm())
        r.Wait()
    }
    if got := r.Requests(); got != 1 {
        t.Fatalf("requests = %d, want 1", got)
    }
    st := r.State()
    if !st.GatewayAvailable || st.PreferenceID == "" {
        t.Fatalf("state = %+v, want a preference", st)
    }
}

func TestReconcilerFieldChangeRequestsOncePerFingerprint(t *testing.T) {
    t.Parallel()
    creator := &instantCreator{}
    r := NewReconciler(menuEvent(), creator, testFingerprinter())
    defer r.Close()

    r.Update(fullForm())
    r.Wait()
    first := r.State().PreferenceID

    changed := fullForm()
    changed.Tel = "1166660000"
    r.Update(changed)
    r.Wait()
    r.Update(changed)
    r.Wait()
    if got := r.Requests(); got != 2 {
        t.Fatalf("requests = %d, want 2", got)
    }
    second := r.State().PreferenceID
    if second == "" || second == first {
        t.Fatalf("preference after change = %q (first %q)", second, first)
    }

    // Going back to an already seen form reuses its preference.
    r.Update(fullForm())
    r.Wait()
    if got := r.Requests(); got != 2 {
        t.Fatalf("requests after revert = %d, want 2", got)
    }
    if got := r.State().PreferenceID; got != first {
        t.Fatalf("preference after revert = %q, want %q", got, first)
    }
}

func TestReconcilerStaleResponseIgnored(t *testing.T) {
    t.Parallel()
    creator := newGatedCreator()
    r := NewReconciler(menuEvent(), creator, testFingerprinter())
    defer r.Close()

    r.Update(fullForm())
    old := creator.next(t)

    newer := fullForm()
    newer.Email = "nueva@example.com"
    st := r.Update(newer)
    if !st.Pending {
        t.Fatalf("state = %+v, want pending", st)
    }
    cur := creator.next(t)
    if cur.req.Email != "nueva@example.com" {
        t.Fatalf("second request email = %q", cur.req.Email)
    }

    cur.resp <- result{id: "pref-new"}
    // Wait for the newer response to land before releasing the old one.
    deadline := time.Now().Add(2 * time.Second)
    for r.State().PreferenceID != "pref-new" {
        if time.Now().After(deadline) {
            t.Fatal("newer preference never applied")
        }
        time.Sleep(time.Millisecond)
    }
    old.resp <- result{id: "pref-old"}
    r.Wait()

    if got := r.State().PreferenceID; got != "pref-new" {
        t.Fatalf("preference = %q, want pref-new", got)
    }
}

func TestReconcilerInvalidClearsPreference(t *testing.T) {
    t.Parallel()
    r := NewReconciler(menuEvent(), &instantCreator{}, testFingerprinter())
    defer r.Close()

    r.Update(fullForm())
    r.Wait()

    broken := fullForm()
    broken.Name = ""
    st := r.Update(broken)
    if st.Valid || st.GatewayAvailable || st.PreferenceID != "" || st.Fingerprint != "" {
        t.Fatalf("state = %+v, want cleared", st)
    }
    if !st.ManualAvailable {
        t.Fatal("manual channel should stay available")
    }
    if got := r.Requests(); got != 1 {
        t.Fatalf("requests = %d, want 1", got)
    }
}

func TestReconcilerFailureKeepsManualAndRetries(t *testing.T) {
    t.Parallel()
    creator := &instantCreator{err: errors.New("gateway down")}
    r := NewReconciler(menuEvent(), creator, testFingerprinter())
    defer r.Close()

    r.Update(fullForm())
    r.Wait()
    st := r.State()
    if st.GatewayAvailable || st.Error == "" || !st.ManualAvailable {
        t.Fatalf("state after failure = %+v", st)
    }

    // Same content is not retried on its own.
    r.Update(fullForm())
    r.Wait()
    if got := r.Requests(); got != 1 {
        t.Fatalf("requests = %d, want 1", got)
    }

    creator.mu.Lock()
    creator.err = nil
    creator.mu.Unlock()
    r.Retry()
    r.Wait()
    st = r.State()
    if !st.GatewayAvailable || st.Error != "" {
        t.Fatalf("state after retry = %+v", st)
    }
    if got := r.Requests(); got != 2 {
        t.Fatalf("requests = %d, want 2", got)
    }
}

func TestReconcilerCloseDiscardsInflight(t *testing.T) {
    t.Parallel()
    creator := newGatedCreator()
    r := NewReconciler(menuEvent(), creator, testFingerprinter())

    r.Update(fullForm())
    creator.next(t)
    r.Close()

    st := r.State()
    if st.PreferenceID != "" || st.Pending {
        t.Fatalf("state after close = %+v", st)
    }
    r.Update(fullForm())
    if got := r.Requests(); got != 1 {
        t.Fatalf("requests after close = %d, want 1", got)
    }
}

func TestSessionsLifecycle(t *testing.T) {
    t.Parallel()
    s := NewSessions(&instantCreator{}, testFingerprinter(), time.Minute)
    now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
    s.now = func() time.Time { return now }

    sess := s.Create(menuEvent())
    if _, err := s.Get(sess.ID); err != nil {
        t.Fatalf("Get: %v", err)
    }
    sess.Update(fullForm())
    sess.Reconciler().Wait()
    if !sess.State().GatewayAvailable {
        t.Fatalf("state = %+v", sess.State())
    }

    now = now.Add(30 * time.Second)
    if n := s.Sweep(); n != 0 {
        t.Fatalf("swept %d active sessions", n)
    }
    now = now.Add(2 * time.Minute)
    if n := s.Sweep(); n != 1 {
        t.Fatalf("swept %d, want 1", n)
    }
    if _, err := s.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
        t.Fatalf("Get after sweep err = %v", err)
    }
    if err := s.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
        t.Fatalf("Delete after sweep err = %v", err)
    }
}

func TestManualLinkRequiresCompleteForm(t *testing.T) {
    t.Parallel()
    form := fullForm()
    form.Email = ""
    if _, err := ManualLink("5491100000000", menuEvent(), form, time.UTC); !errors.Is(err, ErrInvalidForm) {
        t.Fatalf("err = %v, want ErrInvalidForm", err)
    }
}

func TestManualMessage(t *testing.T) {
    t.Parallel()

    t.Run("with menus in event order", func(t *testing.T) {
        t.Parallel()
        got := ManualMessage(menuEvent(), fullForm(), time.UTC)
        want := "Hola, quiero comprar un ticket para el evento \"Cena de gala\" por transferencia o efectivo.\n\n" +
            "Nombre: Ana Gómez\nEmail: ana@example.com\nTeléfono: 1155550000\n\n" +
            "Menús seleccionados:\n" +
            "• 20/11/2026, 21:00: Carne\n" +
            "• 21/11/2026, 13:30: Pasta"
        if got != want {
            t.Fatalf("message =\n%s\nwant\n%s", got, want)
        }
    })

    t.Run("without menus", func(t *testing.T) {
        t.Parallel()
        ev := model.Event{ID: "e2", Name: "Charla"}
        got := ManualMessage(ev, BuyerForm{Buyer: fullForm().Buyer}, time.UTC)
        if !strings.HasSuffix(got, "Menús seleccionados:\nSin menú") {
            t.Fatalf("message = %q", got)
        }
    })

    t.Run("unparseable moment", func(t *testing.T) {
        t.Parallel()
        ev := menuEvent()
        ev.MenuMoments = []model.MenuMoment{{DateTime: "pronto", MenuOptions: []string{"Carne"}}}
        form := fullForm()
        form.SelectedMenus = map[string]string{"pronto": "Carne"}
        got := ManualMessage(ev, form, time.UTC)
        if !strings.Contains(got, "• Fecha inválida: Carne") {
            t.Fatalf("message = %q", got)
        }
    })
}

// A buyer who takes the manual path only gets a link: no sale is created
// and no gateway request is made.
func TestManualPathCreatesNothing(t *testing.T) {
    t.Parallel()
    creator := &instantCreator{}
    link, err := ManualLink("5491100000000", menuEvent(), fullForm(), time.UTC)
    if err != nil {
        t.Fatalf("ManualLink: %v", err)
    }
    if creator.calls != 0 {
        t.Fatalf("gateway calls = %d, want 0", creator.calls)
    }
    u, err := url.Parse(link)
    if err != nil {
        t.Fatalf("parse link: %v", err)
    }
    if u.Host != "wa.me" || u.Path != "/5491100000000" {
        t.Fatalf("link = %s", link)
    }
    if strings.Contains(link, "+") {
        t.Fatalf("spaces must be %%20 encoded: %s", link)
    }
    if got := u.Query().Get("text"); got != ManualMessage(menuEvent(), fullForm(), time.UTC) {
        t.Fatalf("decoded text = %q", got)
    }
}

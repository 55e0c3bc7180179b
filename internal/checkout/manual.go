package checkout

import (
    "fmt"
    "net/url"
    "strings"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ManualNotice is shown next to the manual channel: sending the message
// does not consume capacity, only a sale recorded by staff does.
const ManualNotice = "El pago por transferencia o efectivo no reserva tu lugar hasta que el organizador registre la venta."

// ManualMessage builds the free-text message a buyer sends to the
// organizer to pay by transfer or cash.  Field order is fixed: name,
// email, phone, then one line per menu moment in event order.
func ManualMessage(ev model.Event, form BuyerForm, loc *time.Location) string {
    if loc == nil {
        loc = time.UTC
    }
    var b strings.Builder
    fmt.Fprintf(&b, "Hola, quiero comprar un ticket para el evento %q por transferencia o efectivo.\n\n", ev.Name)
    fmt.Fprintf(&b, "Nombre: %s %s\nEmail: %s\nTeléfono: %s\n\n", form.Name, form.LastName, form.Email, form.Tel)
    b.WriteString("Menús seleccionados:\n")

    if !ev.RequiresMenus() {
        b.WriteString("Sin menú")
        return b.String()
    }
    lines := make([]string, 0, len(ev.MenuMoments))
    for _, m := range ev.MenuMoments {
        readable := "Fecha inválida"
        if t, ok := m.Time(); ok {
            readable = t.In(loc).Format("02/01/2006, 15:04")
        }
        lines = append(lines, fmt.Sprintf("• %s: %s", readable, form.SelectedMenus[m.Key()]))
    }
    b.WriteString(strings.Join(lines, "\n"))
    return b.String()
}

// ManualLink returns the wa.me URI that opens a chat with phone prefilled
// with ManualMessage.  The form must be complete, exactly like the
// gateway path.
func ManualLink(phone string, ev model.Event, form BuyerForm, loc *time.Location) (string, error) {
    if !form.Valid(ev) {
        return "", ErrInvalidForm
    }
    text := strings.ReplaceAll(url.QueryEscape(ManualMessage(ev, form, loc)), "+", "%20")
    return "https://wa.me/" + url.PathEscape(phone) + "?text=" + text, nil
}

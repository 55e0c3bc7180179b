package backend

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// PreferenceRequest is the body of POST /create_preference.
type PreferenceRequest struct {
    EventID       string            `json:"eventId"`
    Price         float64           `json:"price"`
    Name          string            `json:"name"`
    LastName      string            `json:"lastName"`
    Email         string            `json:"email"`
    Tel           string            `json:"tel"`
    SelectedMenus map[string]string `json:"selectedMenus"`
}

// ErrEmptyPreference is returned when the backend answers without an id.
var ErrEmptyPreference = errors.New("backend: empty preference id")

// CreatePreference asks the backend to create a payment gateway preference
// and returns its id.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (string, error) {
    var out struct {
        ID string `json:"id"`
    }
    if err := c.do(ctx, http.MethodPost, "/create_preference", "", req, &out); err != nil {
        return "", err
    }
    if out.ID == "" {
        return "", ErrEmptyPreference
    }
    return out.ID, nil
}

// Result is the {success, message} body of the check-in endpoints.
type Result struct {
    Success bool   `json:"success"`
    Message string `json:"message"`
}

// VerifyTransaction looks up a ticket and its verification flag.
func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (model.Verification, error) {
    var v model.Verification
    err := c.do(ctx, http.MethodGet, "/verify_transaction/"+seg(transactionID), "", nil, &v)
    if v.TransactionID == "" {
        v.TransactionID = transactionID
    }
    return v, err
}

// CheckInTransaction marks a ticket as used at the door.
func (c *Client) CheckInTransaction(ctx context.Context, transactionID, token string) (Result, error) {
    var r Result
    err := c.do(ctx, http.MethodPost, "/checkin_transaction/"+seg(transactionID), token, nil, &r)
    return r, err
}

// UnverifyTransaction reverts a check-in.
func (c *Client) UnverifyTransaction(ctx context.Context, transactionID, token string) (Result, error) {
    var r Result
    err := c.do(ctx, http.MethodPost, "/unverify_transaction/"+seg(transactionID), token, nil, &r)
    return r, err
}

// EventSales lists the sales of an event (staff only).
func (c *Client) EventSales(ctx context.Context, eventID, token string) (model.EventSales, error) {
    var out model.EventSales
    err := c.do(ctx, http.MethodGet, "/api/events/"+seg(eventID)+"/sales", token, nil, &out)
    return out, err
}

// ManualSaleRequest is the body of POST /api/events/:eventId/manual-sale.
type ManualSaleRequest struct {
    model.Buyer
    EventID       string            `json:"eventId"`
    SelectedMenus map[string]string `json:"selectedMenus"`
    MetadataType  model.Channel     `json:"metadataType"`
}

// CreateManualSale records a staff-mediated sale and returns its
// transaction id.  Capacity is consumed at this point and not before.
func (c *Client) CreateManualSale(ctx context.Context, token string, req ManualSaleRequest) (string, error) {
    req.MetadataType = model.ChannelManual
    var out struct {
        TransactionID string `json:"transactionId"`
    }
    if err := c.do(ctx, http.MethodPost, "/api/events/"+seg(req.EventID)+"/manual-sale", token, req, &out); err != nil {
        return "", err
    }
    return out.TransactionID, nil
}

// Login exchanges staff credentials for a backend token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
    var out struct {
        Token string `json:"token"`
    }
    body := map[string]string{"email": email, "password": password}
    if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
        return "", err
    }
    if out.Token == "" {
        return "", fmt.Errorf("backend: login returned no token")
    }
    return out.Token, nil
}

// Receipt is a streamed receipt document.  The caller closes Body.
type Receipt struct {
    Body          io.ReadCloser
    ContentType   string
    ContentLength int64
}

// DownloadReceipt streams the receipt of a transaction.
func (c *Client) DownloadReceipt(ctx context.Context, transactionID string) (Receipt, error) {
    path := "/download_receipt/" + seg(transactionID)
    req, err := c.newRequest(ctx, http.MethodGet, path, "", nil)
    if err != nil {
        return Receipt{}, err
    }
    req.Header.Set("Accept", "application/pdf")
    resp, err := c.hc.Do(req)
    if err != nil {
        return Receipt{}, fmt.Errorf("backend: GET %s: %w", path, err)
    }
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        defer resp.Body.Close()
        return Receipt{}, apiError(http.MethodGet, path, resp)
    }
    ct := resp.Header.Get("Content-Type")
    if ct == "" {
        ct = "application/pdf"
    }
    return Receipt{Body: resp.Body, ContentType: ct, ContentLength: resp.ContentLength}, nil
}

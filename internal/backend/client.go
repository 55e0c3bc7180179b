// Package backend is the HTTP client for the ticketing REST backend, the
// system of record for events and sales.  Every call takes a context and
// returns an error; callers decide how a failure degrades their feature.
package backend

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("backend: not found")

// APIError describes a non-2xx backend response.
type APIError struct {
    Method     string
    Path       string
    StatusCode int
    Message    string
}

func (e *APIError) Error() string {
    if e.Message != "" {
        return fmt.Sprintf("backend: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
    }
    return fmt.Sprintf("backend: %s %s: %d", e.Method, e.Path, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
    return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the backend.  It is safe for concurrent use.
type Client struct {
    baseURL string
    hc      *http.Client
}

// New returns a Client for baseURL using a dedicated http.Client with the
// given timeout.
func New(baseURL string, timeout time.Duration) *Client {
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient returns a Client that uses hc for every request.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
    return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
    var rd io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil {
            return nil, fmt.Errorf("backend: encode %s %s: %w", method, path, err)
        }
        rd = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
    if err != nil {
        return nil, err
    }
    if body != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    req.Header.Set("Accept", "application/json")
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    return req, nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
    req, err := c.newRequest(ctx, method, path, token, body)
    if err != nil {
        return err
    }
    resp, err := c.hc.Do(req)
    if err != nil {
        return fmt.Errorf("backend: %s %s: %w", method, path, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return apiError(method, path, resp)
    }
    if out == nil {
        _, _ = io.Copy(io.Discard, resp.Body)
        return nil
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
    }
    return nil
}

func apiError(method, path string, resp *http.Response) error {
    e := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
    raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
    var body struct {
        Message string `json:"message"`
        Error   string `json:"error"`
    }
    if json.Unmarshal(raw, &body) == nil {
        e.Message = body.Message
        if e.Message == "" {
            e.Message = body.Error
        }
    }
    return e
}

func seg(s string) string { return url.PathEscape(s) }

// Package primary is the HTTP client of the authoritative remote booking
// service.  Every failure is reported as an error; callers decide whether
// it is fatal.  In this service it never is: an unreachable Primary routes
// resolution and cancellation to their local fallbacks.
package primary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/booking-resolver/internal/model"
)

var (
	// ErrNotFound is returned for a 404 from the Primary service.
	ErrNotFound = errors.New("primary: not found")
	// ErrUnavailable wraps transport failures and is returned for every
	// call when no base URL is configured.
	ErrUnavailable = errors.New("primary: unavailable")
)

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("primary: %s %s returned %d", e.Method, e.Path, e.Code)
}

// Client talks to the Primary booking service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient returns a client for baseURL.  A zero timeout leaves the
// request duration to the caller's context.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

// Enabled reports whether a base URL has been configured.
func (c *Client) Enabled() bool { return c != nil && c.baseURL != "" }

// CancelResult is the Primary's answer to a cancellation request.
type CancelResult struct {
	RefundAmount float64
	// Booking is the server's updated record when it sends one.
	Booking *model.Booking
}

// GetBooking fetches GET /bookings/{id}.
func (c *Client) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var resp struct {
		Booking *model.Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Booking == nil {
		return nil, ErrNotFound
	}
	return resp.Booking, nil
}

// CancelBooking calls PUT /bookings/{id}/cancel with the reason.
func (c *Client) CancelBooking(ctx context.Context, id, reason string) (*CancelResult, error) {
	body := map[string]string{"reason": reason}
	var resp struct {
		RefundInfo struct {
			RefundAmount float64 `json:"refundAmount"`
		} `json:"refundInfo"`
		Booking *model.Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPut, "/bookings/"+url.PathEscape(id)+"/cancel", body, &resp); err != nil {
		return nil, err
	}
	return &CancelResult{RefundAmount: resp.RefundInfo.RefundAmount, Booking: resp.Booking}, nil
}

// PaymentHistory fetches GET /payments/history.
func (c *Client) PaymentHistory(ctx context.Context) ([]model.Payment, error) {
	var resp struct {
		Payments []model.Payment `json:"payments"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/history", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Payments == nil {
		resp.Payments = []model.Payment{}
	}
	return resp.Payments, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(snippet)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("primary: decode %s %s: %w", method, path, err)
	}
	return nil
}

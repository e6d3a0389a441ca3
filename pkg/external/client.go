// Package external forwards contact submissions to a third-party contact API.
// Uses raw HTTP calls; the upstream only needs a JSON POST.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Payload is the body forwarded upstream.
type Payload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Forwarder は外部 API への転送インターフェース
type Forwarder interface {
	Forward(ctx context.Context, p Payload) error
}

// ErrNotConfigured is returned when no upstream URL is set.
var ErrNotConfigured = errors.New("external: not configured")

// UpstreamError reports a non-2xx upstream response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("external: upstream returned %d: %s", e.StatusCode, e.Body)
}

// Client is the HTTP implementation of Forwarder. Outbound calls share one
// token bucket so a burst of browser traffic cannot flood the upstream.
type Client struct {
	URL        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client posting to url with the given timeout and an
// outbound budget of rps requests per second with the given burst.
func NewClient(url string, timeout time.Duration, rps float64, burst int) *Client {
	if burst < 1 {
		burst = 1
	}
	return &Client{
		URL:        url,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

var _ Forwarder = (*Client)(nil)

// maxErrorBody caps how much of an upstream error body is kept for logging.
const maxErrorBody = 1024

// Forward POSTs p as JSON. Waiting for the outbound budget honours ctx.
func (c *Client) Forward(ctx context.Context, p Payload) error {
	if c.URL == "" {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("external: wait for budget: %w", err)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("external: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("external: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

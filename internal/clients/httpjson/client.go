// Package httpjson is the JSON-over-HTTP caller shared by the ledger, pricing
// and assistant clients. It paces outbound requests, tags each one with a
// request id and folds both failure channels (non-2xx status and a body-level
// "error" field) into *domain.APIError.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

const maxLoggedBody = 500

// HTTPDoer is the subset of *http.Client the caller needs (injectable for tests)
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration // Applied when HTTPClient is nil
	RPS     float64       // Outbound pacing; zero disables it
	Burst   int
	Cookie  string // Forwarded session cookie
	// HTTPClient overrides the default *http.Client
	HTTPClient HTTPDoer
	// Preprocess rewrites raw response bodies before they are parsed
	Preprocess func([]byte) []byte
}

// Client performs JSON requests against one collaborator
type Client struct {
	baseURL    string
	http       HTTPDoer
	limiter    *rate.Limiter
	cookie     string
	preprocess func([]byte) []byte
	log        zerolog.Logger
}

// New creates a JSON client for the collaborator at opts.BaseURL
func New(opts Options, log zerolog.Logger) *Client {
	doer := opts.HTTPClient
	if doer == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       doer,
		limiter:    limiter,
		cookie:     opts.Cookie,
		preprocess: opts.Preprocess,
		log:        log,
	}
}

// Get issues a GET with query parameters and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE and decodes the response into out
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one request. out may be nil when the body is not needed.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for outbound slot: %w", err)
		}
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().
			Err(err).
			Str("method", method).
			Str("url", requestURL).
			Str("request_id", requestID).
			Msg("Request failed")
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.preprocess != nil {
		raw = c.preprocess(raw)
	}

	c.log.Debug().
		Str("method", method).
		Str("url", requestURL).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if msg, ok := bodyError(raw); ok {
		return &domain.APIError{Status: resp.StatusCode, Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().
			Int("status_code", resp.StatusCode).
			Str("response_body", truncate(raw)).
			Str("url", requestURL).
			Msg("Collaborator returned non-success status")
		return &domain.APIError{Status: resp.StatusCode}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Error().
			Err(err).
			Str("response_body", truncate(raw)).
			Str("url", requestURL).
			Msg("Failed to parse JSON response")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// bodyError extracts a non-empty "error" field from a JSON object body
func bodyError(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Error) == 0 {
		return "", false
	}

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		msg = strings.TrimSpace(msg)
		return msg, msg != ""
	}

	// Non-string error payloads (objects, lists) are passed through as text
	text := string(envelope.Error)
	if text == "null" || text == "false" {
		return "", false
	}
	return text, true
}

func truncate(raw []byte) string {
	if len(raw) > maxLoggedBody {
		return string(raw[:maxLoggedBody]) + "..."
	}
	return string(raw)
}

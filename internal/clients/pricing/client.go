// Package pricing provides the client for the option pricing collaborator.
package pricing

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/httpjson"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

// Route per exercise style
var routes = map[domain.OptionStyle]string{
	domain.StyleEuropean: "/api/euro/price/",
	domain.StyleAmerican: "/api/american/price/",
}

// The pricing service serializes non-finite floats as bare NaN / Infinity
// tokens, which encoding/json rejects. They are rewritten to null so the
// fair value check can treat them as missing.
var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// Sanitize replaces bare NaN and Infinity literals with null. Text inside
// JSON strings is copied unchanged.
func Sanitize(body []byte) []byte {
	out := make([]byte, 0, len(body))
	inString, escaped := false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if n := nonFiniteAt(body[i:]); n > 0 {
			out = append(out, "null"...)
			i += n - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

// nonFiniteAt returns the length of the non-finite token at the start of b,
// or 0 when there is none
func nonFiniteAt(b []byte) int {
	for _, tok := range nonFinite {
		if bytes.HasPrefix(b, tok) && !identByte(b, len(tok)) {
			return len(tok)
		}
	}
	return 0
}

func identByte(b []byte, i int) bool {
	if i >= len(b) {
		return false
	}
	c := b[i]
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Getter is the JSON transport the client runs on
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
}

// Client for the pricing API
type Client struct {
	http Getter
	log  zerolog.Logger
}

// NewClient creates a pricing client. The response sanitizer is always installed.
func NewClient(opts httpjson.Options, log zerolog.Logger) *Client {
	l := log.With().Str("client", "pricing").Logger()
	opts.Preprocess = Sanitize
	return &Client{
		http: httpjson.New(opts, l),
		log:  l,
	}
}

// NewClientWithGetter creates a pricing client over a provided transport (for testing)
func NewClientWithGetter(getter Getter, log zerolog.Logger) *Client {
	return &Client{
		http: getter,
		log:  log.With().Str("client", "pricing").Logger(),
	}
}

var _ domain.PricingClient = (*Client)(nil)

// Quote fetches a fair value for one contract from the route matching its style.
// The returned quote is tagged with the requested style.
func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	route, ok := routes[req.Style]
	if !ok {
		return nil, fmt.Errorf("unsupported option style %q", req.Style)
	}

	var quote domain.Quote
	if err := c.http.Get(ctx, route, buildQuery(req), &quote); err != nil {
		return nil, fmt.Errorf("failed to get %s quote for %s: %w", strings.ToLower(string(req.Style)), req.Symbol, err)
	}
	quote.Style = req.Style

	if fv, ok := quote.FairValue(); ok {
		c.log.Debug().
			Str("symbol", req.Symbol).
			Str("style", string(req.Style)).
			Str("fair_value", fv.String()).
			Msg("Quote received")
	} else {
		c.log.Warn().Str("symbol", req.Symbol).Str("style", string(req.Style)).Msg("Quote has no usable fair value")
	}

	return &quote, nil
}

func buildQuery(req domain.QuoteRequest) url.Values {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(strings.TrimSpace(req.Symbol)))
	q.Set("side", string(req.Side))
	q.Set("strike", req.Strike.String())
	q.Set("expiry", req.Expiry)

	if req.VolMode != "" {
		q.Set("vol_mode", req.VolMode)
	}
	if req.ConstantVol != nil {
		q.Set("constant_vol", req.ConstantVol.String())
	}
	if req.MarketOptionPrice != nil {
		q.Set("market_option_price", req.MarketOptionPrice.String())
	}
	if req.UseQuantLibDayCount {
		q.Set("use_quantlib_daycount", "true")
	}
	return q
}

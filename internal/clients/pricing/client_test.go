package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/httpjson"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

func newTestPricing(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(httpjson.Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop())
}

func baseRequest(style domain.OptionStyle) domain.QuoteRequest {
	return domain.QuoteRequest{
		Symbol: "aapl",
		Side:   domain.OptionCall,
		Style:  style,
		Strike: decimal.NewFromInt(150),
		Expiry: "2026-01-16",
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object value", `{"fair_value": NaN}`, `{"fair_value": null}`},
		{"negative infinity", `{"a":-Infinity,"b":1}`, `{"a":null,"b":1}`},
		{"array", `[1, NaN, Infinity]`, `[1, null, null]`},
		{"inside string untouched", `{"note": "NaN is fine here"}`, `{"note": "NaN is fine here"}`},
		{"string after comma and colon", `{"error": "bad input, NaN", "detail": "vol: Infinity, [NaN"}`, `{"error": "bad input, NaN", "detail": "vol: Infinity, [NaN"}`},
		{"escaped quote keeps string open", `{"msg": "say \"x\", NaN", "v": NaN}`, `{"msg": "say \"x\", NaN", "v": null}`},
		{"mixed string and value", `{"error":"NaN input, Infinity","fair_value":-Infinity}`, `{"error":"NaN input, Infinity","fair_value":null}`},
		{"nested", `{"greeks": {"delta": NaN, "gamma": [Infinity, 0.1]}}`, `{"greeks": {"delta": null, "gamma": [null, 0.1]}}`},
		{"finite numbers untouched", `{"a": -1.5e3, "b": true, "c": null}`, `{"a": -1.5e3, "b": true, "c": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Sanitize([]byte(tt.in))))
		})
	}
}

func TestQuote_EuropeanRoute(t *testing.T) {
	client := newTestPricing(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/euro/price/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "AAPL", q.Get("symbol"))
		assert.Equal(t, "CALL", q.Get("side"))
		assert.Equal(t, "150", q.Get("strike"))
		assert.Equal(t, "2026-01-16", q.Get("expiry"))
		assert.False(t, q.Has("vol_mode"))
		_, _ = w.Write([]byte(`{"price_and_greeks": {"fair_value": 12.34, "delta": 0.61}}`))
	})

	quote, err := client.Quote(context.Background(), baseRequest(domain.StyleEuropean))
	require.NoError(t, err)
	assert.Equal(t, domain.StyleEuropean, quote.Style)

	fv, ok := quote.FairValue()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("12.34").Equal(fv))
}

func TestQuote_AmericanZeroPriceIsUnusable(t *testing.T) {
	client := newTestPricing(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/american/price/", r.URL.Path)
		_, _ = w.Write([]byte(`{"american_result": {"american_price": 0, "european_price": 0.1}}`))
	})

	quote, err := client.Quote(context.Background(), baseRequest(domain.StyleAmerican))
	require.NoError(t, err)
	_, ok := quote.FairValue()
	assert.False(t, ok)
}

func TestQuote_NaNFairValue(t *testing.T) {
	client := newTestPricing(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price_and_greeks": {"fair_value": NaN, "delta": NaN}}`))
	})

	quote, err := client.Quote(context.Background(), baseRequest(domain.StyleEuropean))
	require.NoError(t, err)
	_, ok := quote.FairValue()
	assert.False(t, ok)
}

func TestQuote_OptionalParameters(t *testing.T) {
	client := newTestPricing(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "IV", q.Get("vol_mode"))
		assert.Equal(t, "0.25", q.Get("constant_vol"))
		assert.Equal(t, "4.1", q.Get("market_option_price"))
		assert.Equal(t, "true", q.Get("use_quantlib_daycount"))
		_, _ = w.Write([]byte(`{"price_and_greeks": {"fair_value": 4.0}}`))
	})

	vol := decimal.RequireFromString("0.25")
	market := decimal.RequireFromString("4.1")
	req := baseRequest(domain.StyleEuropean)
	req.VolMode = "IV"
	req.ConstantVol = &vol
	req.MarketOptionPrice = &market
	req.UseQuantLibDayCount = true

	_, err := client.Quote(context.Background(), req)
	require.NoError(t, err)
}

func TestQuote_ErrorField(t *testing.T) {
	client := newTestPricing(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Expiry must be in the future"}`))
	})

	_, err := client.Quote(context.Background(), baseRequest(domain.StyleAmerican))
	require.Error(t, err)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Expiry must be in the future", apiErr.Message)
}

func TestQuote_UnknownStyle(t *testing.T) {
	client := NewClientWithGetter(nil, zerolog.Nop())
	_, err := client.Quote(context.Background(), baseRequest("BERMUDAN"))
	assert.Error(t, err)
}

package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// QuoteRequest asks the pricing collaborator for a fair value of one contract.
// The optional fields are passed through untouched.
type QuoteRequest struct {
	Symbol string
	Side   OptionSide
	Style  OptionStyle
	Strike decimal.Decimal
	Expiry string

	VolMode             string // "HIST" or "IV"
	ConstantVol         *decimal.Decimal
	MarketOptionPrice   *decimal.Decimal
	UseQuantLibDayCount bool
}

// EuropeanQuote is the payload of the European pricing route
type EuropeanQuote struct {
	FairValue *float64 `json:"fair_value"`
	Delta     *float64 `json:"delta"`
	Gamma     *float64 `json:"gamma"`
	Theta     *float64 `json:"theta"`
	Vega      *float64 `json:"vega"`
	Rho       *float64 `json:"rho"`
}

// AmericanQuote is the payload of the American pricing route
type AmericanQuote struct {
	AmericanPrice        *float64 `json:"american_price"`
	EuropeanPrice        *float64 `json:"european_price"`
	EarlyExercisePremium *float64 `json:"early_exercise_premium"`
	CriticalPrice        *float64 `json:"critical_price"`
}

// Quote is a tagged union over the two pricing response shapes. Style is the
// tag; exactly the matching payload is populated.
type Quote struct {
	Style    OptionStyle    `json:"style"`
	European *EuropeanQuote `json:"price_and_greeks,omitempty"`
	American *AmericanQuote `json:"american_result,omitempty"`
}

var fairValueExtractors = map[OptionStyle]func(*Quote) (float64, bool){
	StyleEuropean: extractEuropean,
	StyleAmerican: extractAmerican,
}

func extractEuropean(q *Quote) (float64, bool) {
	if q.European == nil || q.European.FairValue == nil {
		return 0, false
	}
	return *q.European.FairValue, true
}

func extractAmerican(q *Quote) (float64, bool) {
	if q.American == nil || q.American.AmericanPrice == nil {
		return 0, false
	}
	return *q.American.AmericanPrice, true
}

// FairValue returns the usable price for this quote. It reports false when
// the tagged payload is missing or the value is non-finite or not positive.
func (q *Quote) FairValue() (decimal.Decimal, bool) {
	if q == nil {
		return decimal.Zero, false
	}
	extract, ok := fairValueExtractors[q.Style]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := extract(q)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

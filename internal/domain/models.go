package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is one cash account of the user as reported by the ledger.
// Money fields arrive either as JSON numbers or decimal strings.
type Portfolio struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Currency    string          `json:"currency"`
	InitialCash decimal.Decimal `json:"initial_cash"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	IsDefault   bool            `json:"is_default"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ArchivedAt  *time.Time      `json:"archived_at"`
}

// PortfolioInfo is the portfolio header of an account summary
type PortfolioInfo struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialCash    decimal.Decimal `json:"initial_cash"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	PositionsValue decimal.Decimal `json:"positions_value"`
	TotalEquity    decimal.Decimal `json:"total_equity"`
}

// StockPosition is an equity holding. Market fields are null when the
// ledger could not price the symbol.
type StockPosition struct {
	Symbol        string              `json:"symbol"`
	Quantity      decimal.Decimal     `json:"quantity"`
	AvgCost       decimal.Decimal     `json:"avg_cost"`
	MarketPrice   decimal.NullDecimal `json:"market_price"`
	MarketValue   decimal.NullDecimal `json:"market_value"`
	UnrealizedPnL decimal.NullDecimal `json:"unrealized_pnl"`
	Error         string              `json:"error,omitempty"`
}

// Summary is the point-in-time account snapshot used by every sell and exercise flow
type Summary struct {
	Portfolio   PortfolioInfo   `json:"portfolio"`
	Positions   []StockPosition `json:"positions"`
	MarketError *string         `json:"market_error"`
}

// StockPosition returns the held position for symbol, if any
func (s *Summary) StockPosition(symbol string) (StockPosition, bool) {
	if s == nil {
		return StockPosition{}, false
	}
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return StockPosition{}, false
}

// OptionPosition is a holding of one option contract. Side, style, strike,
// expiry and multiplier identify the contract and never change.
type OptionPosition struct {
	ID               int64           `json:"id"`
	PortfolioID      int64           `json:"portfolio_id"`
	ContractID       int64           `json:"contract_id"`
	UnderlyingSymbol string          `json:"underlying_symbol"`
	OptionSide       OptionSide      `json:"option_side"`
	OptionStyle      OptionStyle     `json:"option_style"`
	Strike           decimal.Decimal `json:"strike"`
	Expiry           string          `json:"expiry"`
	Multiplier       int             `json:"multiplier"`
	Quantity         decimal.Decimal `json:"quantity"`
	AvgCost          decimal.Decimal `json:"avg_cost"`
}

// CryptoPosition is a fractional holding of a crypto pair
type CryptoPosition struct {
	ID           int64               `json:"id"`
	PortfolioID  int64               `json:"portfolio_id"`
	Symbol       string              `json:"symbol"`
	Quantity     decimal.Decimal     `json:"quantity"`
	AvgCost      decimal.Decimal     `json:"avg_cost"`
	MarketPrice  decimal.NullDecimal `json:"market_price"`
	MarketValue  decimal.NullDecimal `json:"market_value"`
	UnrealizedPL decimal.NullDecimal `json:"unrealized_pl"`
	LastUpdated  *time.Time          `json:"last_updated,omitempty"`
}

// CryptoAsset is a pair listed by the ledger's crypto venue
type CryptoAsset struct {
	ID                string              `json:"id"`
	Symbol            string              `json:"symbol"`
	Name              string              `json:"name"`
	Status            string              `json:"status"`
	Tradable          bool                `json:"tradable"`
	Exchange          string              `json:"exchange"`
	Class             string              `json:"class"`
	MinOrderSize      decimal.NullDecimal `json:"min_order_size"`
	MinTradeIncrement decimal.NullDecimal `json:"min_trade_increment"`
	PriceIncrement    decimal.NullDecimal `json:"price_increment"`
}

// OptionContract is the contract identity echoed back by the ledger
type OptionContract struct {
	ID               int64           `json:"id"`
	UnderlyingSymbol string          `json:"underlying_symbol"`
	OptionSide       OptionSide      `json:"option_side"`
	OptionStyle      OptionStyle     `json:"option_style"`
	Strike           decimal.Decimal `json:"strike"`
	Expiry           string          `json:"expiry"`
	Multiplier       int             `json:"multiplier"`
	ContractSymbol   string          `json:"contract_symbol"`
}

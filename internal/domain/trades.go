package domain

import "github.com/shopspring/decimal"

// CreatePortfolioRequest is sent to the ledger to open a new portfolio
type CreatePortfolioRequest struct {
	Name         string
	InitialCash  decimal.Decimal
	Currency     string // Optional, ledger defaults to USD
	SetAsDefault *bool  // Optional, ledger defaults to true for the first portfolio
}

// DeletePortfolioResult reports which portfolio the ledger promoted, if any
type DeletePortfolioResult struct {
	PortfolioID  int64  `json:"portfolio_id"`
	NewDefaultID *int64 `json:"new_default_id"`
	Message      string `json:"message"`
}

// StockTradeRequest submits an equity order; a nil Price means market execution
type StockTradeRequest struct {
	PortfolioID *int64
	Symbol      string
	Side        TradeSide
	Quantity    decimal.Decimal
	Price       *decimal.Decimal
}

// StockTrade is the executed equity trade
type StockTrade struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       TradeSide       `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fees       decimal.Decimal `json:"fees"`
	ExecutedAt string          `json:"executed_at"`
}

// StockTradeResult is the ledger's confirmation of an equity trade
type StockTradeResult struct {
	Trade     StockTrade `json:"trade"`
	Portfolio struct {
		ID          int64           `json:"id"`
		CashBalance decimal.Decimal `json:"cash_balance"`
	} `json:"portfolio"`
}

// OptionTradeRequest carries a priced option order. Price is always the
// fair value fetched for this attempt.
type OptionTradeRequest struct {
	PortfolioID int64
	Symbol      string
	OptionSide  OptionSide
	OptionStyle OptionStyle
	Strike      decimal.Decimal
	Expiry      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Side        TradeSide
}

// OptionTrade is the executed option trade
type OptionTrade struct {
	ID          int64           `json:"id"`
	PortfolioID int64           `json:"portfolio_id"`
	ContractID  int64           `json:"contract_id"`
	Side        TradeSide       `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Fees        decimal.Decimal `json:"fees"`
	RealizedPL  decimal.Decimal `json:"realized_pl"`
	ExecutedAt  string          `json:"executed_at"`
}

// PositionRef is the updated position echoed back after a mutation; nil when closed
type PositionRef struct {
	ID       int64           `json:"id"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// CashRef is the portfolio cash echoed back after an option mutation
type CashRef struct {
	ID   int64           `json:"id"`
	Cash decimal.Decimal `json:"cash"`
}

// OptionTradeResult is the ledger's confirmation of an option trade
type OptionTradeResult struct {
	Trade     OptionTrade    `json:"trade"`
	Contract  OptionContract `json:"contract"`
	Portfolio CashRef        `json:"portfolio"`
	Position  *PositionRef   `json:"position"`
}

// ExerciseRequest exercises held contracts at the supplied underlying price
type ExerciseRequest struct {
	PortfolioID     int64
	Symbol          string
	OptionSide      OptionSide
	OptionStyle     OptionStyle
	Strike          decimal.Decimal
	Expiry          string
	Quantity        decimal.Decimal
	UnderlyingPrice decimal.Decimal
}

// Exercise is the ledger's exercise record
type Exercise struct {
	ID                        int64           `json:"id"`
	Quantity                  decimal.Decimal `json:"quantity"`
	UnderlyingPriceAtExercise decimal.Decimal `json:"underlying_price_at_exercise"`
	IntrinsicValuePerContract decimal.Decimal `json:"intrinsic_value_per_contract"`
	IntrinsicValueTotal       decimal.Decimal `json:"intrinsic_value_total"`
	OptionRealizedPL          decimal.Decimal `json:"option_realized_pl"`
	CashDelta                 decimal.Decimal `json:"cash_delta"`
	ExercisedAt               string          `json:"exercised_at"`
}

// ExerciseResult is the ledger's confirmation of an exercise
type ExerciseResult struct {
	Exercise  Exercise       `json:"exercise"`
	Contract  OptionContract `json:"contract"`
	Portfolio CashRef        `json:"portfolio"`
	Position  *PositionRef   `json:"position"`
}

// CryptoTradeRequest submits a market order for a crypto pair
type CryptoTradeRequest struct {
	PortfolioID *int64
	Symbol      string
	Side        TradeSide
	Quantity    decimal.Decimal
}

// CryptoTrade is the executed crypto trade
type CryptoTrade struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       TradeSide       `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fees       decimal.Decimal `json:"fees"`
	ExecutedAt string          `json:"executed_at"`
}

// CryptoTradeResult is the ledger's confirmation of a crypto trade
type CryptoTradeResult struct {
	Trade     CryptoTrade `json:"trade"`
	Portfolio struct {
		ID          int64           `json:"id"`
		CashBalance decimal.Decimal `json:"cash_balance"`
	} `json:"portfolio"`
	Position *PositionRef `json:"position"`
}

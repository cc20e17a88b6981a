// Package options prices and trades option contracts. Every buy and sell
// fetches a fresh fair value and submits the trade at exactly that price.
package options

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading"
)

// Option executor messages
const (
	MsgPortfolioNotLoaded  = "Portfolio is not loaded yet."
	MsgFieldsRequired      = "Underlying symbol, strike, expiry date, and contracts quantity are required."
	MsgStrikePositive      = "Strike must be a positive number."
	MsgContractsPositive   = "Contracts must be a positive number."
	MsgContractsWhole      = "Contracts must be a whole number."
	MsgQuoteFailed         = "Failed to calculate option fair value."
	MsgInvalidFairValue    = "Could not compute a valid fair value for this option."
	MsgBuyFailed           = "Options trade failed."
	MsgSellFailed          = "Options sell failed."
	MsgExerciseFailed      = "Option exercise failed."
	MsgNoContracts         = "No contracts available to exercise for this position."
	MsgPositionNotFound    = "Option position not found."
	msgNoMarketPriceFormat = "No valid market price available for %s; cannot exercise this contract."
)

// PositionReader looks up held option positions
type PositionReader interface {
	OptionPosition(id int64) (domain.OptionPosition, bool)
}

// BuyForm is the option buy form as the user typed it. The pricing knobs
// are passed to the quote untouched.
type BuyForm struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Style    string `json:"style"`
	Strike   string `json:"strike"`
	Expiry   string `json:"expiry"`
	Quantity string `json:"quantity"`

	VolMode             string `json:"vol_mode,omitempty"`
	ConstantVol         string `json:"constant_vol,omitempty"`
	MarketOptionPrice   string `json:"market_option_price,omitempty"`
	UseQuantLibDayCount bool   `json:"use_quantlib_daycount,omitempty"`
}

// DefaultBuyForm is the form shown before any input
func DefaultBuyForm() BuyForm {
	return BuyForm{
		Symbol:   "AAPL",
		Side:     string(domain.OptionCall),
		Style:    string(domain.StyleAmerican),
		Quantity: "1",
	}
}

// Executor buys, sells and exercises option contracts
type Executor struct {
	trading.Executor

	pricing   domain.PricingClient
	summaries domain.SummaryReader
	positions PositionReader

	buy      *trading.Action
	sell     *trading.Action
	exercise *trading.Action

	mu   sync.Mutex
	form BuyForm
}

// NewExecutor creates the option executor
func NewExecutor(base trading.Executor, pricing domain.PricingClient, summaries domain.SummaryReader, positions PositionReader) *Executor {
	base.Log = base.Log.With().Str("executor", "options").Logger()
	return &Executor{
		Executor:  base,
		pricing:   pricing,
		summaries: summaries,
		positions: positions,
		buy:       trading.NewAction("option_buy", base.EventManager),
		sell:      trading.NewAction("option_sell", base.EventManager),
		exercise:  trading.NewAction("option_exercise", base.EventManager),
		form:      DefaultBuyForm(),
	}
}

// Form returns the current buy form
func (e *Executor) Form() BuyForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// BuyState returns the buy executor status
func (e *Executor) BuyState() trading.ActionState { return e.buy.State() }

// SellState returns the sell executor status
func (e *Executor) SellState() trading.ActionState { return e.sell.State() }

// ExerciseState returns the exercise executor status
func (e *Executor) ExerciseState() trading.ActionState { return e.exercise.State() }

// contract identifies what is being priced and traded
type contract struct {
	symbol string
	side   domain.OptionSide
	style  domain.OptionStyle
	strike decimal.Decimal
	expiry string
}

// Buy validates form, prices the contract and buys it at the fair value
func (e *Executor) Buy(ctx context.Context, form BuyForm) domain.Outcome {
	e.setForm(form)

	summary := e.summaries.Summary()
	if summary == nil {
		return e.buy.Reject(MsgPortfolioNotLoaded)
	}

	symbol := strings.ToUpper(strings.TrimSpace(form.Symbol))
	expiry := strings.TrimSpace(form.Expiry)
	if symbol == "" || strings.TrimSpace(form.Strike) == "" || expiry == "" || strings.TrimSpace(form.Quantity) == "" {
		return e.buy.Reject(MsgFieldsRequired)
	}
	strike, ok := trading.ParsePositive(form.Strike)
	if !ok {
		return e.buy.Reject(MsgStrikePositive)
	}
	qty, ok := trading.ParsePositive(form.Quantity)
	if !ok {
		return e.buy.Reject(MsgContractsPositive)
	}
	if !qty.IsInteger() {
		return e.buy.Reject(MsgContractsWhole)
	}
	side, err := domain.ParseOptionSide(form.Side)
	if err != nil {
		return e.buy.Reject(err.Error())
	}
	style, err := domain.ParseOptionStyle(form.Style)
	if err != nil {
		return e.buy.Reject(err.Error())
	}

	quote := domain.QuoteRequest{
		Symbol:              symbol,
		Side:                side,
		Style:               style,
		Strike:              strike,
		Expiry:              expiry,
		VolMode:             strings.ToUpper(strings.TrimSpace(form.VolMode)),
		UseQuantLibDayCount: form.UseQuantLibDayCount,
	}
	if quote.ConstantVol, ok = trading.ParseOptional(form.ConstantVol); !ok {
		return e.buy.Reject("Constant volatility must be a positive number.")
	}
	if quote.MarketOptionPrice, ok = trading.ParseOptional(form.MarketOptionPrice); !ok {
		return e.buy.Reject("Market option price must be a positive number.")
	}

	c := contract{symbol: symbol, side: side, style: style, strike: strike, expiry: expiry}
	return e.quoteAndExecute(ctx, e.buy, summary.Portfolio.ID, c, quote, qty, domain.SideBuy, MsgBuyFailed, func() {
		f := form
		f.Quantity = "1"
		e.setForm(f)
	})
}

// Sell prices the held position and sells qty contracts at the fair value.
// targetID is the position id; this is the option selection submitter.
func (e *Executor) Sell(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
	summary := e.summaries.Summary()
	if summary == nil {
		return e.sell.Reject(MsgPortfolioNotLoaded)
	}
	if !qty.IsPositive() {
		return e.sell.Reject(selection.MsgQuantityRequired)
	}
	if !qty.IsInteger() {
		return e.sell.Reject(MsgContractsWhole)
	}

	id, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return e.sell.Reject(MsgPositionNotFound)
	}
	pos, ok := e.positions.OptionPosition(id)
	if !ok {
		return e.sell.Reject(MsgPositionNotFound)
	}

	c := contract{
		symbol: strings.ToUpper(pos.UnderlyingSymbol),
		side:   pos.OptionSide,
		style:  pos.OptionStyle,
		strike: pos.Strike,
		expiry: pos.Expiry,
	}
	quote := domain.QuoteRequest{Symbol: c.symbol, Side: c.side, Style: c.style, Strike: c.strike, Expiry: c.expiry}
	return e.quoteAndExecute(ctx, e.sell, summary.Portfolio.ID, c, quote, qty, domain.SideSell, MsgSellFailed, nil)
}

// quoteAndExecute fetches the fair value and, only when it is usable,
// submits the trade at that price
func (e *Executor) quoteAndExecute(
	ctx context.Context,
	action *trading.Action,
	portfolioID int64,
	c contract,
	quoteReq domain.QuoteRequest,
	qty decimal.Decimal,
	side domain.TradeSide,
	fallback string,
	onSuccess func(),
) domain.Outcome {
	release := e.Gate.Lock(domain.AssetOption)
	defer release()

	action.Begin()

	quote, err := e.pricing.Quote(ctx, quoteReq)
	if err != nil {
		return e.Fail(action, err, domain.KindQuote, MsgQuoteFailed)
	}
	price, ok := quote.FairValue()
	if !ok {
		e.Log.Warn().Str("symbol", c.symbol).Str("style", string(c.style)).Msg("Unusable fair value, trade not submitted")
		return action.Finish(domain.Failed(domain.KindQuote, MsgInvalidFairValue))
	}

	res, err := e.Ledger.SubmitOptionTrade(ctx, domain.OptionTradeRequest{
		PortfolioID: portfolioID,
		Symbol:      c.symbol,
		OptionSide:  c.side,
		OptionStyle: c.style,
		Strike:      c.strike,
		Expiry:      c.expiry,
		Quantity:    qty,
		Price:       price,
		Side:        side,
	})
	if err != nil {
		return e.Fail(action, err, domain.KindExecution, fallback)
	}

	if onSuccess != nil {
		onSuccess()
	}

	verb := "Bought"
	if side == domain.SideSell {
		verb = "Sold"
	}
	message := fmt.Sprintf("%s %v %s %s @ strike $%.2f exp %s",
		verb, res.Trade.Quantity, res.Contract.UnderlyingSymbol, res.Contract.OptionSide,
		res.Contract.Strike.InexactFloat64(), res.Contract.Expiry)

	return e.Succeed(ctx, action, domain.AssetOption, &events.TradeExecutedData{
		AssetClass: string(domain.AssetOption),
		Symbol:     res.Contract.UnderlyingSymbol,
		Side:       string(res.Trade.Side),
		Quantity:   res.Trade.Quantity.String(),
		Price:      res.Trade.Price.String(),
		Message:    message,
	}, message)
}

// Exercise exercises every held contract of a position at the underlying's
// market price from the cached summary. Nothing is refetched first.
func (e *Executor) Exercise(ctx context.Context, positionID int64) domain.Outcome {
	summary := e.summaries.Summary()
	if summary == nil {
		return e.exercise.Reject(MsgPortfolioNotLoaded)
	}
	pos, ok := e.positions.OptionPosition(positionID)
	if !ok {
		return e.exercise.Reject(MsgPositionNotFound)
	}

	symbol := strings.ToUpper(pos.UnderlyingSymbol)
	underlying, ok := marketPrice(summary, symbol)
	if !ok {
		return e.exercise.Reject(fmt.Sprintf(msgNoMarketPriceFormat, symbol))
	}
	if !pos.Quantity.IsPositive() {
		return e.exercise.Reject(MsgNoContracts)
	}

	release := e.Gate.Lock(domain.AssetOption)
	defer release()

	e.exercise.Begin()
	res, err := e.Ledger.ExerciseOption(ctx, domain.ExerciseRequest{
		PortfolioID:     summary.Portfolio.ID,
		Symbol:          symbol,
		OptionSide:      pos.OptionSide,
		OptionStyle:     pos.OptionStyle,
		Strike:          pos.Strike,
		Expiry:          pos.Expiry,
		Quantity:        pos.Quantity,
		UnderlyingPrice: underlying,
	})
	if err != nil {
		return e.Fail(e.exercise, err, domain.KindExecution, MsgExerciseFailed)
	}

	ex := res.Exercise
	message := fmt.Sprintf("Exercised %v %s %s @ strike $%.2f for intrinsic $%.2f ($%.2f total)",
		ex.Quantity, res.Contract.UnderlyingSymbol, res.Contract.OptionSide,
		res.Contract.Strike.InexactFloat64(),
		ex.IntrinsicValuePerContract.InexactFloat64(),
		ex.IntrinsicValueTotal.InexactFloat64())

	return e.Succeed(ctx, e.exercise, domain.AssetOption, &events.OptionExercisedData{
		Symbol:         res.Contract.UnderlyingSymbol,
		Quantity:       ex.Quantity.String(),
		IntrinsicTotal: ex.IntrinsicValueTotal.String(),
		Message:        message,
	}, message)
}

// marketPrice reads the underlying's last price from the summary
func marketPrice(summary *domain.Summary, symbol string) (decimal.Decimal, bool) {
	for _, p := range summary.Positions {
		if strings.ToUpper(p.Symbol) == symbol && p.MarketPrice.Valid {
			return p.MarketPrice.Decimal, true
		}
	}
	return decimal.Zero, false
}

func (e *Executor) setForm(form BuyForm) {
	e.mu.Lock()
	e.form = form
	e.mu.Unlock()
}

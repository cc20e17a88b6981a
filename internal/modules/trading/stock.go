package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
)

// Stock executor messages
const (
	MsgSymbolRequired     = "Symbol is required."
	MsgQuantityPositive   = "Quantity must be a positive number."
	MsgQuantityWhole      = "Quantity must be a whole number."
	MsgLimitPricePositive = "Limit price must be a positive number."
	MsgTradeFailed        = "Trade failed."
	MsgSellFailed         = "Sell failed."
)

// StockForm is the buy form as the user typed it
type StockForm struct {
	Symbol     string `json:"symbol"`
	Quantity   string `json:"quantity"`
	LimitPrice string `json:"limit_price"` // Blank means market order
}

// DefaultStockForm is the form shown before any input
func DefaultStockForm() StockForm {
	return StockForm{Symbol: "AAPL", Quantity: "10"}
}

// StockExecutor buys and sells equities
type StockExecutor struct {
	Executor

	buy  *Action
	sell *Action

	mu   sync.Mutex
	form StockForm
}

// NewStockExecutor creates the stock executor
func NewStockExecutor(base Executor) *StockExecutor {
	base.Log = base.Log.With().Str("executor", "stock").Logger()
	return &StockExecutor{
		Executor: base,
		buy:      NewAction("stock_buy", base.EventManager),
		sell:     NewAction("stock_sell", base.EventManager),
		form:     DefaultStockForm(),
	}
}

// Form returns the current buy form
func (e *StockExecutor) Form() StockForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// BuyState returns the buy executor status
func (e *StockExecutor) BuyState() ActionState {
	return e.buy.State()
}

// SellState returns the sell executor status
func (e *StockExecutor) SellState() ActionState {
	return e.sell.State()
}

// Buy validates form and submits a buy order
func (e *StockExecutor) Buy(ctx context.Context, form StockForm) domain.Outcome {
	e.setForm(form)

	symbol := strings.ToUpper(strings.TrimSpace(form.Symbol))
	if symbol == "" {
		return e.buy.Reject(MsgSymbolRequired)
	}
	qty, ok := ParsePositive(form.Quantity)
	if !ok {
		return e.buy.Reject(MsgQuantityPositive)
	}
	if !qty.IsInteger() {
		return e.buy.Reject(MsgQuantityWhole)
	}
	price, ok := ParseOptional(form.LimitPrice)
	if !ok {
		return e.buy.Reject(MsgLimitPricePositive)
	}

	release := e.Gate.Lock(domain.AssetStock)
	defer release()

	e.buy.Begin()
	res, err := e.Ledger.SubmitStockTrade(ctx, domain.StockTradeRequest{
		PortfolioID: e.PortfolioID(),
		Symbol:      symbol,
		Side:        domain.SideBuy,
		Quantity:    qty,
		Price:       price,
	})
	if err != nil {
		return e.Fail(e.buy, err, domain.KindExecution, MsgTradeFailed)
	}

	e.setForm(DefaultStockForm())
	message := fmt.Sprintf("Bought %v %s @ $%.2f", res.Trade.Quantity, res.Trade.Symbol, res.Trade.Price.InexactFloat64())
	return e.Succeed(ctx, e.buy, domain.AssetStock, tradeData(domain.AssetStock, res.Trade.Symbol, res.Trade.Side, res.Trade.Quantity, res.Trade.Price, message), message)
}

// Sell submits a market sell of qty shares of symbol. It is the submitter of
// the stock selection machine.
func (e *StockExecutor) Sell(ctx context.Context, symbol string, qty decimal.Decimal) domain.Outcome {
	if !qty.IsPositive() {
		return e.sell.Reject(selection.MsgQuantityRequired)
	}
	if !qty.IsInteger() {
		return e.sell.Reject(MsgQuantityWhole)
	}

	release := e.Gate.Lock(domain.AssetStock)
	defer release()

	e.sell.Begin()
	res, err := e.Ledger.SubmitStockTrade(ctx, domain.StockTradeRequest{
		PortfolioID: e.PortfolioID(),
		Symbol:      strings.ToUpper(symbol),
		Side:        domain.SideSell,
		Quantity:    qty,
	})
	if err != nil {
		return e.Fail(e.sell, err, domain.KindExecution, MsgSellFailed)
	}

	message := fmt.Sprintf("Sold %v %s @ $%.2f", res.Trade.Quantity, res.Trade.Symbol, res.Trade.Price.InexactFloat64())
	return e.Succeed(ctx, e.sell, domain.AssetStock, tradeData(domain.AssetStock, res.Trade.Symbol, res.Trade.Side, res.Trade.Quantity, res.Trade.Price, message), message)
}

func (e *StockExecutor) setForm(form StockForm) {
	e.mu.Lock()
	e.form = form
	e.mu.Unlock()
}

func tradeData(class domain.AssetClass, symbol string, side domain.TradeSide, qty, price decimal.Decimal, message string) *events.TradeExecutedData {
	return &events.TradeExecutedData{
		AssetClass: string(class),
		Symbol:     symbol,
		Side:       string(side),
		Quantity:   qty.String(),
		Price:      price.String(),
		Message:    message,
	}
}

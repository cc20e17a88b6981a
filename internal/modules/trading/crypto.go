package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
)

// Crypto executor messages
const (
	DefaultCryptoPair        = "BTC/USD"
	MsgPairRequired          = "Crypto pair is required."
	MsgCryptoTradeFailed     = "Crypto trade failed."
	MsgCryptoSellFailed      = MsgSellFailed
	cryptoSuccessPriceFormat = "%s %v %s @ $%s"
)

// CryptoForm is the crypto buy form as the user typed it
type CryptoForm struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}

// DefaultCryptoForm is the form shown before any input
func DefaultCryptoForm() CryptoForm {
	return CryptoForm{Symbol: DefaultCryptoPair}
}

// CryptoExecutor buys and sells crypto pairs with market orders. Quantities
// are fractional.
type CryptoExecutor struct {
	Executor

	buy  *Action
	sell *Action

	mu   sync.Mutex
	form CryptoForm
}

// NewCryptoExecutor creates the crypto executor
func NewCryptoExecutor(base Executor) *CryptoExecutor {
	base.Log = base.Log.With().Str("executor", "crypto").Logger()
	return &CryptoExecutor{
		Executor: base,
		buy:      NewAction("crypto_buy", base.EventManager),
		sell:     NewAction("crypto_sell", base.EventManager),
		form:     DefaultCryptoForm(),
	}
}

// Form returns the current buy form
func (e *CryptoExecutor) Form() CryptoForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// BuyState returns the buy executor status
func (e *CryptoExecutor) BuyState() ActionState {
	return e.buy.State()
}

// SellState returns the sell executor status
func (e *CryptoExecutor) SellState() ActionState {
	return e.sell.State()
}

// Buy validates form and submits a market buy
func (e *CryptoExecutor) Buy(ctx context.Context, form CryptoForm) domain.Outcome {
	e.setForm(form)

	symbol := strings.TrimSpace(form.Symbol)
	if symbol == "" {
		return e.buy.Reject(MsgPairRequired)
	}
	qty, ok := ParsePositive(form.Quantity)
	if !ok {
		return e.buy.Reject(MsgQuantityPositive)
	}

	return e.submit(ctx, e.buy, symbol, domain.SideBuy, qty, MsgCryptoTradeFailed, func() {
		e.setForm(CryptoForm{Symbol: symbol})
	})
}

// Sell submits a market sell. It is the submitter of the crypto selection
// machine.
func (e *CryptoExecutor) Sell(ctx context.Context, symbol string, qty decimal.Decimal) domain.Outcome {
	if !qty.IsPositive() {
		return e.sell.Reject(selection.MsgQuantityRequired)
	}
	return e.submit(ctx, e.sell, symbol, domain.SideSell, qty, MsgCryptoSellFailed, nil)
}

func (e *CryptoExecutor) submit(ctx context.Context, action *Action, symbol string, side domain.TradeSide, qty decimal.Decimal, fallback string, onSuccess func()) domain.Outcome {
	release := e.Gate.Lock(domain.AssetCrypto)
	defer release()

	action.Begin()
	res, err := e.Ledger.SubmitCryptoTrade(ctx, domain.CryptoTradeRequest{
		PortfolioID: e.PortfolioID(),
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
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
	message := fmt.Sprintf(cryptoSuccessPriceFormat, verb, res.Trade.Quantity, res.Trade.Symbol, FormatGrouped(res.Trade.Price))
	return e.Succeed(ctx, action, domain.AssetCrypto, tradeData(domain.AssetCrypto, res.Trade.Symbol, res.Trade.Side, res.Trade.Quantity, res.Trade.Price, message), message)
}

func (e *CryptoExecutor) setForm(form CryptoForm) {
	e.mu.Lock()
	e.form = form
	e.mu.Unlock()
}

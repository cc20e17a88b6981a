package testing

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

// Ledger method names for SetError and Calls
const (
	MethodListPortfolios      = "ListPortfolios"
	MethodCreatePortfolio     = "CreatePortfolio"
	MethodRenamePortfolio     = "RenamePortfolio"
	MethodDeletePortfolio     = "DeletePortfolio"
	MethodSetDefaultPortfolio = "SetDefaultPortfolio"
	MethodGetSummary          = "GetSummary"
	MethodSubmitStockTrade    = "SubmitStockTrade"
	MethodListOptionPositions = "ListOptionPositions"
	MethodSubmitOptionTrade   = "SubmitOptionTrade"
	MethodExerciseOption      = "ExerciseOption"
	MethodListCryptoAssets    = "ListCryptoAssets"
	MethodListCryptoPositions = "ListCryptoPositions"
	MethodSubmitCryptoTrade   = "SubmitCryptoTrade"
)

// MockLedgerClient is an in-memory ledger for tests. Reads return whatever
// was set; mutations echo the request back unless an error is configured.
type MockLedgerClient struct {
	mu sync.Mutex

	portfolios      []domain.Portfolio
	summary         *domain.Summary
	optionPositions []domain.OptionPosition
	cryptoPositions []domain.CryptoPosition
	cryptoAssets    []domain.CryptoAsset
	deleteResult    *domain.DeletePortfolioResult
	fillPrice       decimal.Decimal
	nextID          int64

	errors map[string]error
	calls  []string

	StockTrades     []domain.StockTradeRequest
	OptionTrades    []domain.OptionTradeRequest
	Exercises       []domain.ExerciseRequest
	CryptoTrades    []domain.CryptoTradeRequest
	SummaryRequests []*int64
}

// NewMockLedgerClient creates a mock ledger filling market orders at 100
func NewMockLedgerClient() *MockLedgerClient {
	return &MockLedgerClient{
		fillPrice: decimal.NewFromInt(100),
		nextID:    100,
		errors:    make(map[string]error),
	}
}

var _ domain.LedgerClient = (*MockLedgerClient)(nil)

// SetPortfolios sets the list returned by ListPortfolios
func (m *MockLedgerClient) SetPortfolios(portfolios []domain.Portfolio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios = portfolios
}

// SetSummary sets the summary returned by GetSummary
func (m *MockLedgerClient) SetSummary(summary *domain.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = summary
}

// SetOptionPositions sets the list returned by ListOptionPositions
func (m *MockLedgerClient) SetOptionPositions(positions []domain.OptionPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optionPositions = positions
}

// SetCryptoPositions sets the list returned by ListCryptoPositions
func (m *MockLedgerClient) SetCryptoPositions(positions []domain.CryptoPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cryptoPositions = positions
}

// SetCryptoAssets sets the list returned by ListCryptoAssets
func (m *MockLedgerClient) SetCryptoAssets(assets []domain.CryptoAsset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cryptoAssets = assets
}

// SetDeleteResult sets the result returned by DeletePortfolio
func (m *MockLedgerClient) SetDeleteResult(result *domain.DeletePortfolioResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteResult = result
}

// SetFillPrice sets the execution price for market orders
func (m *MockLedgerClient) SetFillPrice(price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fillPrice = price
}

// SetError makes method fail with err; a nil err clears it
func (m *MockLedgerClient) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// Calls returns how many times method was invoked
func (m *MockLedgerClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

// CallLog returns the ordered list of invoked methods
func (m *MockLedgerClient) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// record logs the call and returns the configured error. Caller holds mu.
func (m *MockLedgerClient) record(method string) error {
	m.calls = append(m.calls, method)
	return m.errors[method]
}

// ListPortfolios returns the configured portfolios
func (m *MockLedgerClient) ListPortfolios(ctx context.Context, includeStats bool) ([]domain.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodListPortfolios); err != nil {
		return nil, err
	}
	return append([]domain.Portfolio(nil), m.portfolios...), nil
}

// CreatePortfolio echoes the request as a new portfolio. The first portfolio
// is always default, matching the ledger.
func (m *MockLedgerClient) CreatePortfolio(ctx context.Context, req domain.CreatePortfolioRequest) (*domain.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodCreatePortfolio); err != nil {
		return nil, err
	}

	m.nextID++
	isDefault := len(m.portfolios) == 0
	if req.SetAsDefault != nil && *req.SetAsDefault {
		isDefault = true
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	p := domain.Portfolio{
		ID:          m.nextID,
		Name:        req.Name,
		Currency:    currency,
		InitialCash: req.InitialCash,
		CashBalance: req.InitialCash,
		IsDefault:   isDefault,
		IsActive:    true,
	}
	if isDefault {
		for i := range m.portfolios {
			m.portfolios[i].IsDefault = false
		}
	}
	m.portfolios = append(m.portfolios, p)
	return &p, nil
}

// RenamePortfolio renames the stored portfolio
func (m *MockLedgerClient) RenamePortfolio(ctx context.Context, id int64, name string) (*domain.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodRenamePortfolio); err != nil {
		return nil, err
	}
	for i := range m.portfolios {
		if m.portfolios[i].ID == id {
			m.portfolios[i].Name = name
			p := m.portfolios[i]
			return &p, nil
		}
	}
	return &domain.Portfolio{ID: id, Name: name}, nil
}

// DeletePortfolio returns the configured result, or a bare acknowledgement
func (m *MockLedgerClient) DeletePortfolio(ctx context.Context, id int64) (*domain.DeletePortfolioResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodDeletePortfolio); err != nil {
		return nil, err
	}
	if m.deleteResult != nil {
		res := *m.deleteResult
		return &res, nil
	}
	return &domain.DeletePortfolioResult{PortfolioID: id}, nil
}

// SetDefaultPortfolio returns the portfolio flagged as default
func (m *MockLedgerClient) SetDefaultPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodSetDefaultPortfolio); err != nil {
		return nil, err
	}
	for i := range m.portfolios {
		if m.portfolios[i].ID == id {
			p := m.portfolios[i]
			p.IsDefault = true
			return &p, nil
		}
	}
	return &domain.Portfolio{ID: id, IsDefault: true}, nil
}

// GetSummary returns the configured summary
func (m *MockLedgerClient) GetSummary(ctx context.Context, portfolioID *int64) (*domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryRequests = append(m.SummaryRequests, portfolioID)
	if err := m.record(MethodGetSummary); err != nil {
		return nil, err
	}
	if m.summary == nil {
		return &domain.Summary{}, nil
	}
	s := *m.summary
	return &s, nil
}

// SubmitStockTrade fills at the limit price, or the fill price for market orders
func (m *MockLedgerClient) SubmitStockTrade(ctx context.Context, req domain.StockTradeRequest) (*domain.StockTradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockTrades = append(m.StockTrades, req)
	if err := m.record(MethodSubmitStockTrade); err != nil {
		return nil, err
	}

	price := m.fillPrice
	if req.Price != nil {
		price = *req.Price
	}
	res := &domain.StockTradeResult{
		Trade: domain.StockTrade{
			ID:       m.nextTradeID(),
			Symbol:   req.Symbol,
			Side:     req.Side,
			Quantity: req.Quantity,
			Price:    price,
		},
	}
	if req.PortfolioID != nil {
		res.Portfolio.ID = *req.PortfolioID
	}
	return res, nil
}

// ListOptionPositions returns the configured option positions
func (m *MockLedgerClient) ListOptionPositions(ctx context.Context, portfolioID int64) ([]domain.OptionPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodListOptionPositions); err != nil {
		return nil, err
	}
	return append([]domain.OptionPosition(nil), m.optionPositions...), nil
}

// SubmitOptionTrade echoes the priced trade back
func (m *MockLedgerClient) SubmitOptionTrade(ctx context.Context, req domain.OptionTradeRequest) (*domain.OptionTradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OptionTrades = append(m.OptionTrades, req)
	if err := m.record(MethodSubmitOptionTrade); err != nil {
		return nil, err
	}
	return &domain.OptionTradeResult{
		Trade: domain.OptionTrade{
			ID:          m.nextTradeID(),
			PortfolioID: req.PortfolioID,
			Side:        req.Side,
			Quantity:    req.Quantity,
			Price:       req.Price,
		},
		Contract:  contractFor(req.Symbol, req.OptionSide, req.OptionStyle, req.Strike, req.Expiry),
		Portfolio: domain.CashRef{ID: req.PortfolioID},
	}, nil
}

// ExerciseOption settles at intrinsic value using the supplied underlying price
func (m *MockLedgerClient) ExerciseOption(ctx context.Context, req domain.ExerciseRequest) (*domain.ExerciseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exercises = append(m.Exercises, req)
	if err := m.record(MethodExerciseOption); err != nil {
		return nil, err
	}

	intrinsic := req.UnderlyingPrice.Sub(req.Strike)
	if req.OptionSide == domain.OptionPut {
		intrinsic = req.Strike.Sub(req.UnderlyingPrice)
	}
	if intrinsic.IsNegative() {
		intrinsic = decimal.Zero
	}
	total := intrinsic.Mul(req.Quantity).Mul(decimal.NewFromInt(100))

	return &domain.ExerciseResult{
		Exercise: domain.Exercise{
			ID:                        m.nextTradeID(),
			Quantity:                  req.Quantity,
			UnderlyingPriceAtExercise: req.UnderlyingPrice,
			IntrinsicValuePerContract: intrinsic,
			IntrinsicValueTotal:       total,
			CashDelta:                 total,
		},
		Contract:  contractFor(req.Symbol, req.OptionSide, req.OptionStyle, req.Strike, req.Expiry),
		Portfolio: domain.CashRef{ID: req.PortfolioID},
	}, nil
}

// ListCryptoAssets returns the configured assets
func (m *MockLedgerClient) ListCryptoAssets(ctx context.Context) ([]domain.CryptoAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodListCryptoAssets); err != nil {
		return nil, err
	}
	return append([]domain.CryptoAsset(nil), m.cryptoAssets...), nil
}

// ListCryptoPositions returns the configured crypto positions
func (m *MockLedgerClient) ListCryptoPositions(ctx context.Context, portfolioID int64) ([]domain.CryptoPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodListCryptoPositions); err != nil {
		return nil, err
	}
	return append([]domain.CryptoPosition(nil), m.cryptoPositions...), nil
}

// SubmitCryptoTrade fills the market order at the fill price
func (m *MockLedgerClient) SubmitCryptoTrade(ctx context.Context, req domain.CryptoTradeRequest) (*domain.CryptoTradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CryptoTrades = append(m.CryptoTrades, req)
	if err := m.record(MethodSubmitCryptoTrade); err != nil {
		return nil, err
	}
	res := &domain.CryptoTradeResult{
		Trade: domain.CryptoTrade{
			ID:       m.nextTradeID(),
			Symbol:   req.Symbol,
			Side:     req.Side,
			Quantity: req.Quantity,
			Price:    m.fillPrice,
		},
	}
	if req.PortfolioID != nil {
		res.Portfolio.ID = *req.PortfolioID
	}
	return res, nil
}

func (m *MockLedgerClient) nextTradeID() int64 {
	m.nextID++
	return m.nextID
}

func contractFor(symbol string, side domain.OptionSide, style domain.OptionStyle, strike decimal.Decimal, expiry string) domain.OptionContract {
	return domain.OptionContract{
		UnderlyingSymbol: symbol,
		OptionSide:       side,
		OptionStyle:      style,
		Strike:           strike,
		Expiry:           expiry,
		Multiplier:       100,
	}
}

// MockPricingClient returns a fixed quote
type MockPricingClient struct {
	mu       sync.Mutex
	quote    *domain.Quote
	err      error
	Requests []domain.QuoteRequest
}

// NewMockPricingClient creates a mock pricing client
func NewMockPricingClient() *MockPricingClient {
	return &MockPricingClient{}
}

var _ domain.PricingClient = (*MockPricingClient)(nil)

// SetQuote sets the quote returned by Quote; its Style is overwritten per request
func (m *MockPricingClient) SetQuote(quote *domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quote = quote
}

// SetError sets the error returned by Quote
func (m *MockPricingClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Quote returns the configured quote tagged with the requested style
func (m *MockPricingClient) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.quote == nil {
		return &domain.Quote{Style: req.Style}, nil
	}
	q := *m.quote
	q.Style = req.Style
	return &q, nil
}

// MockAssistantClient replies with a fixed string and records each history it receives
type MockAssistantClient struct {
	mu        sync.Mutex
	reply     string
	err       error
	Histories [][]domain.ChatMessage
	Snapshots []any
}

// NewMockAssistantClient creates a mock assistant
func NewMockAssistantClient(reply string) *MockAssistantClient {
	return &MockAssistantClient{reply: reply}
}

var _ domain.AssistantClient = (*MockAssistantClient)(nil)

// SetError sets the error returned by Ask
func (m *MockAssistantClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Ask records the call and returns the configured reply
func (m *MockAssistantClient) Ask(ctx context.Context, snapshot any, history []domain.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Histories = append(m.Histories, append([]domain.ChatMessage(nil), history...))
	m.Snapshots = append(m.Snapshots, snapshot)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// MockReconciler records reconciliation requests
type MockReconciler struct {
	mu      sync.Mutex
	classes []domain.AssetClass
}

// NewMockReconciler creates a mock reconciler
func NewMockReconciler() *MockReconciler {
	return &MockReconciler{}
}

var _ domain.Reconciler = (*MockReconciler)(nil)

// Reconcile records the requested class
func (m *MockReconciler) Reconcile(ctx context.Context, class domain.AssetClass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes = append(m.classes, class)
}

// Classes returns the classes reconciled so far, in order
func (m *MockReconciler) Classes() []domain.AssetClass {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AssetClass(nil), m.classes...)
}

// MockSummaryReader serves a fixed summary
type MockSummaryReader struct {
	mu      sync.RWMutex
	summary *domain.Summary
}

// NewMockSummaryReader creates a summary reader over summary (may be nil)
func NewMockSummaryReader(summary *domain.Summary) *MockSummaryReader {
	return &MockSummaryReader{summary: summary}
}

var _ domain.SummaryReader = (*MockSummaryReader)(nil)

// SetSummary replaces the summary
func (m *MockSummaryReader) SetSummary(summary *domain.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = summary
}

// Summary returns the current summary
func (m *MockSummaryReader) Summary() *domain.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

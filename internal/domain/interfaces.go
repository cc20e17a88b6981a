package domain

import "context"

// LedgerClient is the service of record for portfolios, positions and trades.
// Implementations return *APIError when the ledger rejects a request.
type LedgerClient interface {
	// Portfolios
	ListPortfolios(ctx context.Context, includeStats bool) ([]Portfolio, error)
	CreatePortfolio(ctx context.Context, req CreatePortfolioRequest) (*Portfolio, error)
	RenamePortfolio(ctx context.Context, id int64, name string) (*Portfolio, error)
	DeletePortfolio(ctx context.Context, id int64) (*DeletePortfolioResult, error)
	SetDefaultPortfolio(ctx context.Context, id int64) (*Portfolio, error)

	// Account summary and equities
	GetSummary(ctx context.Context, portfolioID *int64) (*Summary, error)
	SubmitStockTrade(ctx context.Context, req StockTradeRequest) (*StockTradeResult, error)

	// Options
	ListOptionPositions(ctx context.Context, portfolioID int64) ([]OptionPosition, error)
	SubmitOptionTrade(ctx context.Context, req OptionTradeRequest) (*OptionTradeResult, error)
	ExerciseOption(ctx context.Context, req ExerciseRequest) (*ExerciseResult, error)

	// Crypto
	ListCryptoAssets(ctx context.Context) ([]CryptoAsset, error)
	ListCryptoPositions(ctx context.Context, portfolioID int64) ([]CryptoPosition, error)
	SubmitCryptoTrade(ctx context.Context, req CryptoTradeRequest) (*CryptoTradeResult, error)
}

// PricingClient computes option fair values
type PricingClient interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

// ChatMessage is one turn of an assistant conversation
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantClient answers questions about an account snapshot. It is
// stateless; callers send the whole history every time.
type AssistantClient interface {
	Ask(ctx context.Context, snapshot any, history []ChatMessage) (string, error)
}

// KVStore is durable client-side storage for small string values
// (the active portfolio id survives restarts through it).
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Reconciler refetches authoritative state after a successful mutation.
// An empty class means every class.
type Reconciler interface {
	Reconcile(ctx context.Context, class AssetClass)
}

// SummaryReader exposes the cached account summary
type SummaryReader interface {
	Summary() *Summary
}

// Package positions keeps the account summary and per-class position caches
// in step with the ledger.
package positions

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// Resource names a cache owned by the reconciler
type Resource string

const (
	ResourceSummary      Resource = "summary"
	ResourceOptions      Resource = "option_positions"
	ResourceCrypto       Resource = "crypto_positions"
	ResourceCryptoAssets Resource = "crypto_assets"
)

// Fallback messages for failed refreshes
const (
	MsgSummaryFailed      = "Failed to load summary."
	MsgOptionsFailed      = "Failed to load option positions."
	MsgCryptoFailed       = "Failed to fetch crypto positions."
	MsgCryptoAssetsFailed = "Failed to fetch crypto assets."
)

// ActivePortfolio tells the reconciler which portfolio to load
type ActivePortfolio interface {
	ActiveID() (int64, bool)
}

// SelectionSyncer receives fresh holdings so stale selections can be cleared
type SelectionSyncer interface {
	Sync(class domain.AssetClass, holdings map[string]decimal.Decimal)
}

// State is a point-in-time view of every cache
type State struct {
	Summary         *domain.Summary         `json:"summary"`
	OptionPositions []domain.OptionPosition `json:"option_positions"`
	CryptoPositions []domain.CryptoPosition `json:"crypto_positions"`
	Errors          map[Resource]string     `json:"errors,omitempty"`
}

// Reconciler refetches authoritative state after mutations. Every refresh is
// fetch-and-replace; a failed fetch keeps the previous cache and records a
// stale-read error for that resource.
type Reconciler struct {
	ledger       domain.LedgerClient
	active       ActivePortfolio
	selections   SelectionSyncer
	eventManager *events.Manager
	log          zerolog.Logger

	mu              sync.RWMutex
	summary         *domain.Summary
	optionPositions []domain.OptionPosition
	cryptoPositions []domain.CryptoPosition
	cryptoAssets    []domain.CryptoAsset
	errs            map[Resource]string
}

// NewReconciler creates a reconciler. selections may be nil.
func NewReconciler(ledger domain.LedgerClient, active ActivePortfolio, selections SelectionSyncer, eventManager *events.Manager, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		ledger:       ledger,
		active:       active,
		selections:   selections,
		eventManager: eventManager,
		log:          log.With().Str("service", "reconciler").Logger(),
		errs:         make(map[Resource]string),
	}
}

var (
	_ domain.Reconciler    = (*Reconciler)(nil)
	_ domain.SummaryReader = (*Reconciler)(nil)
)

// Reconcile refetches the summary, then the position list of class. An empty
// class refetches every list.
func (r *Reconciler) Reconcile(ctx context.Context, class domain.AssetClass) {
	r.log.Debug().Str("asset_class", string(class)).Msg("Reconciling")

	r.RefreshSummary(ctx)

	switch class {
	case domain.AssetOption:
		r.RefreshOptionPositions(ctx)
	case domain.AssetCrypto:
		r.RefreshCryptoPositions(ctx)
	case "":
		r.RefreshOptionPositions(ctx)
		r.RefreshCryptoPositions(ctx)
	}
}

// RefreshSummary replaces the cached account summary
func (r *Reconciler) RefreshSummary(ctx context.Context) bool {
	var portfolioID *int64
	if id, ok := r.active.ActiveID(); ok {
		portfolioID = &id
	}

	summary, err := r.ledger.GetSummary(ctx, portfolioID)
	if err != nil {
		r.recordStale(ResourceSummary, err, MsgSummaryFailed)
		return false
	}

	r.mu.Lock()
	r.summary = summary
	delete(r.errs, ResourceSummary)
	r.mu.Unlock()

	r.sync(domain.AssetStock, stockHoldings(summary))

	r.eventManager.EmitTyped("positions", &events.SummaryRefreshedData{
		PortfolioID: summary.Portfolio.ID,
		Positions:   len(summary.Positions),
		CashBalance: summary.Portfolio.CashBalance.String(),
	})
	r.emitReconciled(domain.AssetStock, len(summary.Positions))
	return true
}

// RefreshOptionPositions replaces the cached option positions
func (r *Reconciler) RefreshOptionPositions(ctx context.Context) bool {
	portfolioID, ok := r.portfolioID()
	if !ok {
		r.log.Debug().Msg("No portfolio loaded, skipping option positions")
		return false
	}

	list, err := r.ledger.ListOptionPositions(ctx, portfolioID)
	if err != nil {
		r.recordStale(ResourceOptions, err, MsgOptionsFailed)
		return false
	}

	r.mu.Lock()
	r.optionPositions = list
	delete(r.errs, ResourceOptions)
	r.mu.Unlock()

	r.sync(domain.AssetOption, optionHoldings(list))
	r.emitReconciled(domain.AssetOption, len(list))
	return true
}

// RefreshCryptoPositions replaces the cached crypto positions
func (r *Reconciler) RefreshCryptoPositions(ctx context.Context) bool {
	portfolioID, ok := r.portfolioID()
	if !ok {
		r.log.Debug().Msg("No portfolio loaded, skipping crypto positions")
		return false
	}

	list, err := r.ledger.ListCryptoPositions(ctx, portfolioID)
	if err != nil {
		r.recordStale(ResourceCrypto, err, MsgCryptoFailed)
		return false
	}

	r.mu.Lock()
	r.cryptoPositions = list
	delete(r.errs, ResourceCrypto)
	r.mu.Unlock()

	r.sync(domain.AssetCrypto, cryptoHoldings(list))
	r.emitReconciled(domain.AssetCrypto, len(list))
	return true
}

// RefreshCryptoAssets replaces the cached tradable pair catalogue
func (r *Reconciler) RefreshCryptoAssets(ctx context.Context) bool {
	assets, err := r.ledger.ListCryptoAssets(ctx)
	if err != nil {
		r.recordStale(ResourceCryptoAssets, err, MsgCryptoAssetsFailed)
		return false
	}

	r.mu.Lock()
	r.cryptoAssets = assets
	delete(r.errs, ResourceCryptoAssets)
	r.mu.Unlock()
	return true
}

// Summary returns the cached summary, nil before the first successful load
func (r *Reconciler) Summary() *domain.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary
}

// OptionPositions returns a copy of the cached option positions
func (r *Reconciler) OptionPositions() []domain.OptionPosition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.OptionPosition(nil), r.optionPositions...)
}

// OptionPosition looks up a cached option position by id
func (r *Reconciler) OptionPosition(id int64) (domain.OptionPosition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.optionPositions {
		if p.ID == id {
			return p, true
		}
	}
	return domain.OptionPosition{}, false
}

// CryptoPositions returns a copy of the cached crypto positions
func (r *Reconciler) CryptoPositions() []domain.CryptoPosition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.CryptoPosition(nil), r.cryptoPositions...)
}

// CryptoAssets returns a copy of the cached crypto catalogue
func (r *Reconciler) CryptoAssets() []domain.CryptoAsset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.CryptoAsset(nil), r.cryptoAssets...)
}

// Holdings returns the cached quantity per selection target of class.
// Stocks and crypto are keyed by symbol, options by position id.
func (r *Reconciler) Holdings(class domain.AssetClass) map[string]decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch class {
	case domain.AssetStock:
		return stockHoldings(r.summary)
	case domain.AssetOption:
		return optionHoldings(r.optionPositions)
	case domain.AssetCrypto:
		return cryptoHoldings(r.cryptoPositions)
	}
	return map[string]decimal.Decimal{}
}

// Error returns the stale-read message recorded for resource
func (r *Reconciler) Error(resource Resource) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errs[resource]
}

// State returns a snapshot of every cache
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(map[Resource]string, len(r.errs))
	for k, v := range r.errs {
		errs[k] = v
	}
	return State{
		Summary:         r.summary,
		OptionPositions: append([]domain.OptionPosition(nil), r.optionPositions...),
		CryptoPositions: append([]domain.CryptoPosition(nil), r.cryptoPositions...),
		Errors:          errs,
	}
}

// portfolioID prefers the directory's active id, then the loaded summary's
func (r *Reconciler) portfolioID() (int64, bool) {
	if id, ok := r.active.ActiveID(); ok {
		return id, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.summary != nil && r.summary.Portfolio.ID != 0 {
		return r.summary.Portfolio.ID, true
	}
	return 0, false
}

func (r *Reconciler) recordStale(resource Resource, err error, fallback string) {
	message := domain.OutcomeFromError(err, domain.KindStaleRead, fallback).Message

	r.mu.Lock()
	r.errs[resource] = message
	r.mu.Unlock()

	r.log.Warn().Err(err).Str("resource", string(resource)).Msg("Refresh failed, keeping cached data")
	r.eventManager.EmitTyped("positions", &events.StaleReadData{Resource: string(resource), Error: message})
}

func (r *Reconciler) sync(class domain.AssetClass, holdings map[string]decimal.Decimal) {
	if r.selections != nil {
		r.selections.Sync(class, holdings)
	}
}

func (r *Reconciler) emitReconciled(class domain.AssetClass, count int) {
	r.eventManager.EmitTyped("positions", &events.PositionsReconciledData{
		AssetClass: string(class),
		Positions:  count,
	})
}

func stockHoldings(summary *domain.Summary) map[string]decimal.Decimal {
	holdings := make(map[string]decimal.Decimal)
	if summary == nil {
		return holdings
	}
	for _, p := range summary.Positions {
		holdings[p.Symbol] = p.Quantity
	}
	return holdings
}

func optionHoldings(list []domain.OptionPosition) map[string]decimal.Decimal {
	holdings := make(map[string]decimal.Decimal, len(list))
	for _, p := range list {
		holdings[strconv.FormatInt(p.ID, 10)] = p.Quantity
	}
	return holdings
}

func cryptoHoldings(list []domain.CryptoPosition) map[string]decimal.Decimal {
	holdings := make(map[string]decimal.Decimal, len(list))
	for _, p := range list {
		holdings[p.Symbol] = p.Quantity
	}
	return holdings
}

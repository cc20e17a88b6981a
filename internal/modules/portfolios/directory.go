// Package portfolios owns the account's portfolio list and the active
// portfolio selection.
package portfolios

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// ActivePortfolioKey is the KVStore key holding the active portfolio id
const ActivePortfolioKey = "financebuddy_active_portfolio_id"

// User-facing messages
const (
	MsgNameRequired       = "Portfolio name is required"
	MsgInitialCashInvalid = "Initial cash must be a positive number"
	MsgNameEmpty          = "Name cannot be empty"
	MsgCannotDeleteOnly   = "Cannot delete only portfolio"
	MsgPortfolioNotFound  = "Portfolio not found"
	MsgLoadFailed         = "Failed to load portfolios"
	MsgCreateFailed       = "Failed to create portfolio"
	MsgUpdateFailed       = "Failed to update portfolio"
	MsgDeleteFailed       = "Failed to delete portfolio"
	MsgSetDefaultFailed   = "Failed to set default portfolio"
)

// CreateInput is the user's new-portfolio form. InitialCash is the raw field text.
type CreateInput struct {
	Name         string `json:"name"`
	InitialCash  string `json:"initial_cash"`
	Currency     string `json:"currency,omitempty"`
	SetAsDefault *bool  `json:"set_as_default,omitempty"`
}

// State is a point-in-time view of the directory
type State struct {
	Portfolios []domain.Portfolio `json:"portfolios"`
	ActiveID   *int64             `json:"active_id"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
	ErrorKind  domain.ErrorKind   `json:"error_kind,omitempty"`
}

// Directory caches the portfolio list and the active portfolio id.
//
// Await-then-mutate: every mutation waits for the ledger to confirm before
// the cache is touched, so the cache never shows unconfirmed state. Operations
// report failure through their boolean result and Error(); nothing panics.
//
// After every cache change the active id is reconciled: an unset or vanished
// active id moves to the default portfolio, else the first one.
type Directory struct {
	ledger       domain.LedgerClient
	store        domain.KVStore
	eventManager *events.Manager
	log          zerolog.Logger

	reconciler domain.Reconciler

	mu         sync.RWMutex
	portfolios []domain.Portfolio
	activeID   *int64
	loading    bool
	err        string
	errKind    domain.ErrorKind
}

// NewDirectory creates a directory and restores the persisted active id
func NewDirectory(ledger domain.LedgerClient, store domain.KVStore, eventManager *events.Manager, log zerolog.Logger) *Directory {
	d := &Directory{
		ledger:       ledger,
		store:        store,
		eventManager: eventManager,
		log:          log.With().Str("service", "portfolios").Logger(),
	}

	if raw, ok, err := store.Get(ActivePortfolioKey); err != nil {
		d.log.Warn().Err(err).Msg("Failed to read persisted active portfolio")
	} else if ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			d.activeID = &id
		} else {
			d.log.Warn().Str("value", raw).Msg("Ignoring malformed persisted active portfolio id")
		}
	}

	return d
}

// SetReconciler wires the reconciler triggered after successful mutations.
// The reconciler reads the active id from the directory, so it is attached
// after both exist.
func (d *Directory) SetReconciler(r domain.Reconciler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconciler = r
}

// List returns a copy of the cached portfolios
func (d *Directory) List() []domain.Portfolio {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Portfolio(nil), d.portfolios...)
}

// ActiveID returns the active portfolio id, if any
func (d *Directory) ActiveID() (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.activeID == nil {
		return 0, false
	}
	return *d.activeID, true
}

// Active returns the active portfolio, if it is cached
func (d *Directory) Active() (domain.Portfolio, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.activeID == nil {
		return domain.Portfolio{}, false
	}
	idx := indexOf(d.portfolios, *d.activeID)
	if idx < 0 {
		return domain.Portfolio{}, false
	}
	return d.portfolios[idx], true
}

// Error returns the message of the last failed operation, empty after a success
func (d *Directory) Error() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// State returns a snapshot for the local API
func (d *Directory) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := State{
		Portfolios: append([]domain.Portfolio(nil), d.portfolios...),
		Loading:    d.loading,
		Error:      d.err,
		ErrorKind:  d.errKind,
	}
	if d.activeID != nil {
		id := *d.activeID
		s.ActiveID = &id
	}
	return s
}

// Refresh replaces the cache with the ledger's list. On failure the previous
// list stays available and the error is recorded.
func (d *Directory) Refresh(ctx context.Context) bool {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	list, err := d.ledger.ListPortfolios(ctx, true)

	d.mu.Lock()
	d.loading = false
	if err != nil {
		outcome := domain.OutcomeFromError(err, domain.KindStaleRead, MsgLoadFailed)
		d.setErrorLocked(domain.KindStaleRead, outcome.Message)
		d.mu.Unlock()

		d.log.Warn().Err(err).Msg("Failed to refresh portfolios, keeping cached list")
		d.eventManager.EmitTyped("portfolios", &events.StaleReadData{Resource: "portfolios", Error: outcome.Message})
		return false
	}

	d.portfolios = singleDefault(list)
	d.clearErrorLocked()
	change := d.reconcileActiveLocked()
	count := len(d.portfolios)
	d.mu.Unlock()

	d.log.Debug().Int("count", count).Msg("Portfolios refreshed")
	d.emitChanged("refresh", 0, count)
	d.afterActiveChange(change)
	return true
}

// Select makes id the active portfolio and persists it. It does not refetch
// dependent data; callers reconcile afterwards.
func (d *Directory) Select(id int64) bool {
	d.mu.Lock()
	if indexOf(d.portfolios, id) < 0 {
		d.setErrorLocked(domain.KindValidation, MsgPortfolioNotFound)
		d.mu.Unlock()
		return false
	}
	change := d.setActiveLocked(&id)
	d.clearErrorLocked()
	d.mu.Unlock()

	d.afterActiveChange(change)
	return true
}

// Create validates the form, opens the portfolio on the ledger and merges it
// into the cache. A default newcomer demotes every other entry in the same
// update. It becomes active when it is the default or the directory was empty.
func (d *Directory) Create(ctx context.Context, input CreateInput) (*domain.Portfolio, bool) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		d.fail(domain.KindValidation, MsgNameRequired)
		return nil, false
	}
	cash, err := decimal.NewFromString(strings.TrimSpace(input.InitialCash))
	if err != nil || !cash.IsPositive() {
		d.fail(domain.KindValidation, MsgInitialCashInvalid)
		return nil, false
	}

	created, err := d.ledger.CreatePortfolio(ctx, domain.CreatePortfolioRequest{
		Name:         name,
		InitialCash:  cash,
		Currency:     strings.ToUpper(strings.TrimSpace(input.Currency)),
		SetAsDefault: input.SetAsDefault,
	})
	if err != nil {
		d.failFromError(err, MsgCreateFailed)
		return nil, false
	}

	d.mu.Lock()
	wasEmpty := len(d.portfolios) == 0
	if created.IsDefault {
		for i := range d.portfolios {
			d.portfolios[i].IsDefault = false
		}
		d.portfolios = append([]domain.Portfolio{*created}, d.portfolios...)
	} else {
		d.portfolios = append(d.portfolios, *created)
	}

	change := activeChange{}
	if created.IsDefault || wasEmpty {
		id := created.ID
		change = d.setActiveLocked(&id)
	}
	change = change.merge(d.reconcileActiveLocked())
	d.clearErrorLocked()
	count := len(d.portfolios)
	d.mu.Unlock()

	d.log.Info().Int64("portfolio_id", created.ID).Str("name", created.Name).Bool("default", created.IsDefault).Msg("Portfolio created")
	d.afterMutation(ctx, "create", created.ID, count, change)

	out := *created
	return &out, true
}

// Rename changes a portfolio's display name
func (d *Directory) Rename(ctx context.Context, id int64, name string) (*domain.Portfolio, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		d.fail(domain.KindValidation, MsgNameEmpty)
		return nil, false
	}

	updated, err := d.ledger.RenamePortfolio(ctx, id, name)
	if err != nil {
		d.failFromError(err, MsgUpdateFailed)
		return nil, false
	}

	d.mu.Lock()
	if idx := indexOf(d.portfolios, id); idx >= 0 {
		d.portfolios[idx] = *updated
	}
	change := d.reconcileActiveLocked()
	d.clearErrorLocked()
	count := len(d.portfolios)
	d.mu.Unlock()

	d.afterMutation(ctx, "rename", id, count, change)

	out := *updated
	return &out, true
}

// Delete removes a portfolio. The only remaining portfolio is never sent to
// the ledger. If the deleted portfolio was active, the active id moves to the
// ledger's new default, else the first remaining portfolio; with nothing left
// the persisted id is removed.
func (d *Directory) Delete(ctx context.Context, id int64) bool {
	d.mu.RLock()
	only := len(d.portfolios) == 1 && d.portfolios[0].ID == id
	d.mu.RUnlock()
	if only {
		d.fail(domain.KindValidation, MsgCannotDeleteOnly)
		return false
	}

	result, err := d.ledger.DeletePortfolio(ctx, id)
	if err != nil {
		d.failFromError(err, MsgDeleteFailed)
		return false
	}

	d.mu.Lock()
	remaining := make([]domain.Portfolio, 0, len(d.portfolios))
	for _, p := range d.portfolios {
		if p.ID == id {
			continue
		}
		if result.NewDefaultID != nil {
			p.IsDefault = p.ID == *result.NewDefaultID
		}
		remaining = append(remaining, p)
	}
	d.portfolios = remaining

	change := activeChange{}
	if d.activeID != nil && *d.activeID == id {
		switch {
		case result.NewDefaultID != nil && indexOf(remaining, *result.NewDefaultID) >= 0:
			next := *result.NewDefaultID
			change = d.setActiveLocked(&next)
		case len(remaining) > 0:
			next := remaining[0].ID
			change = d.setActiveLocked(&next)
		default:
			change = d.setActiveLocked(nil)
		}
	}
	change = change.merge(d.reconcileActiveLocked())
	d.clearErrorLocked()
	count := len(d.portfolios)
	d.mu.Unlock()

	d.log.Info().Int64("portfolio_id", id).Int("remaining", count).Msg("Portfolio deleted")
	d.afterMutation(ctx, "delete", id, count, change)
	return true
}

// SetDefault marks id as the account default and demotes the rest
func (d *Directory) SetDefault(ctx context.Context, id int64) (*domain.Portfolio, bool) {
	updated, err := d.ledger.SetDefaultPortfolio(ctx, id)
	if err != nil {
		d.failFromError(err, MsgSetDefaultFailed)
		return nil, false
	}

	d.mu.Lock()
	for i := range d.portfolios {
		if d.portfolios[i].ID == id {
			d.portfolios[i] = *updated
			d.portfolios[i].IsDefault = true
		} else {
			d.portfolios[i].IsDefault = false
		}
	}
	change := d.reconcileActiveLocked()
	d.clearErrorLocked()
	count := len(d.portfolios)
	d.mu.Unlock()

	d.afterMutation(ctx, "set_default", id, count, change)

	out := *updated
	out.IsDefault = true
	return &out, true
}

// activeChange describes an active id transition that still has to be
// persisted and announced outside the lock
type activeChange struct {
	changed bool
	id      *int64
}

func (c activeChange) merge(later activeChange) activeChange {
	if later.changed {
		return later
	}
	return c
}

// setActiveLocked sets the active id. Caller holds mu.
func (d *Directory) setActiveLocked(id *int64) activeChange {
	if sameID(d.activeID, id) {
		return activeChange{}
	}
	if id == nil {
		d.activeID = nil
		return activeChange{changed: true}
	}
	v := *id
	d.activeID = &v
	return activeChange{changed: true, id: &v}
}

// reconcileActiveLocked enforces that the active id names a cached portfolio.
// Caller holds mu.
func (d *Directory) reconcileActiveLocked() activeChange {
	if len(d.portfolios) == 0 {
		return activeChange{}
	}
	if d.activeID != nil && indexOf(d.portfolios, *d.activeID) >= 0 {
		return activeChange{}
	}

	next := d.portfolios[0].ID
	for _, p := range d.portfolios {
		if p.IsDefault {
			next = p.ID
			break
		}
	}
	return d.setActiveLocked(&next)
}

// afterActiveChange persists and announces an active id transition
func (d *Directory) afterActiveChange(change activeChange) {
	if !change.changed {
		return
	}

	if change.id == nil {
		if err := d.store.Remove(ActivePortfolioKey); err != nil {
			d.log.Warn().Err(err).Msg("Failed to remove persisted active portfolio")
		}
	} else if err := d.store.Set(ActivePortfolioKey, strconv.FormatInt(*change.id, 10)); err != nil {
		d.log.Warn().Err(err).Int64("portfolio_id", *change.id).Msg("Failed to persist active portfolio")
	}

	d.log.Info().Interface("portfolio_id", change.id).Msg("Active portfolio changed")
	d.eventManager.EmitTyped("portfolios", &events.ActivePortfolioChangedData{PortfolioID: change.id})
}

// afterMutation runs the post-confirmation side effects of a ledger mutation
func (d *Directory) afterMutation(ctx context.Context, action string, id int64, count int, change activeChange) {
	d.afterActiveChange(change)
	d.emitChanged(action, id, count)

	d.mu.RLock()
	reconciler := d.reconciler
	d.mu.RUnlock()
	if reconciler != nil {
		// portfolio mutations invalidate every class
		reconciler.Reconcile(ctx, "")
	}
}

func (d *Directory) emitChanged(action string, id int64, count int) {
	d.eventManager.EmitTyped("portfolios", &events.PortfolioChangedData{
		Action:      action,
		PortfolioID: id,
		Count:       count,
	})
}

func (d *Directory) fail(kind domain.ErrorKind, message string) {
	d.mu.Lock()
	d.setErrorLocked(kind, message)
	d.mu.Unlock()
}

func (d *Directory) failFromError(err error, fallback string) {
	outcome := domain.OutcomeFromError(err, domain.KindExecution, fallback)
	d.log.Warn().Err(err).Str("message", outcome.Message).Msg("Portfolio operation failed")
	d.fail(outcome.Kind, outcome.Message)
}

func (d *Directory) setErrorLocked(kind domain.ErrorKind, message string) {
	d.err = message
	d.errKind = kind
}

func (d *Directory) clearErrorLocked() {
	d.err = ""
	d.errKind = domain.KindNone
}

// singleDefault leaves exactly one default in a non-empty list: the first
// flagged entry wins, and the first entry is promoted when none is flagged.
func singleDefault(list []domain.Portfolio) []domain.Portfolio {
	seen := false
	for i := range list {
		if list[i].IsDefault {
			if seen {
				list[i].IsDefault = false
			}
			seen = true
		}
	}
	if !seen && len(list) > 0 {
		list[0].IsDefault = true
	}
	return list
}

func indexOf(list []domain.Portfolio, id int64) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

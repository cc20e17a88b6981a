// Package trading executes user-initiated stock and crypto trades against the
// ledger and reconciles the affected caches afterwards.
package trading

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// ActivePortfolio resolves the portfolio trades are booked against
type ActivePortfolio interface {
	ActiveID() (int64, bool)
}

// Executor holds what every trade executor shares. Option executors embed
// it as well.
type Executor struct {
	Ledger       domain.LedgerClient
	Active       ActivePortfolio
	Reconciler   domain.Reconciler
	Gate         *MutationGate
	EventManager *events.Manager
	Log          zerolog.Logger
}

// PortfolioID returns the active portfolio id, nil when none is selected so
// the ledger books against its default
func (e *Executor) PortfolioID() *int64 {
	if e.Active == nil {
		return nil
	}
	if id, ok := e.Active.ActiveID(); ok {
		return &id
	}
	return nil
}

// Succeed reconciles class, publishes the trade and only then records the
// success message on action
func (e *Executor) Succeed(ctx context.Context, action *Action, class domain.AssetClass, data events.EventData, message string) domain.Outcome {
	if e.Reconciler != nil {
		e.Reconciler.Reconcile(ctx, class)
	}
	e.EventManager.EmitTyped("trading", data)
	e.Log.Info().Str("action", action.Name()).Msg(message)
	return action.Finish(domain.Succeeded(message))
}

// Fail records a collaborator failure, preferring the collaborator's message
func (e *Executor) Fail(action *Action, err error, kind domain.ErrorKind, fallback string) domain.Outcome {
	e.Log.Warn().Err(err).Str("action", action.Name()).Msg("Trade failed")
	return action.Finish(domain.OutcomeFromError(err, kind, fallback))
}

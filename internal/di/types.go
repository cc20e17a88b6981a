// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived component. It is the single source of
// truth for service instances and is handed to the HTTP server.
package di

import (
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/ledger"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/pricing"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/database"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/assistant"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/options"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/portfolios"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Storage
	StateDB     *database.DB
	StateRepo   *clientstate.Repository
	Preferences *clientstate.Preferences

	// Collaborators
	LedgerClient    *ledger.Client
	PricingClient   *pricing.Client
	AssistantClient domain.AssistantClient

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Modules
	Directory      *portfolios.Directory
	Selections     *selection.Registry
	Reconciler     *positions.Reconciler
	Gate           *trading.MutationGate
	StockExecutor  *trading.StockExecutor
	CryptoExecutor *trading.CryptoExecutor
	OptionExecutor *options.Executor
	Assistant      *assistant.Session

	// Submitters route a selection submit to the executor owning its asset class
	Submitters map[domain.AssetClass]selection.Submitter

	Scheduler *scheduler.Scheduler
}

// Close releases the resources the container owns
func (c *Container) Close() error {
	if c.StateDB == nil {
		return nil
	}
	return c.StateDB.Close()
}

package di

import (
	"fmt"

	"github.com/rs/zerolog"

	assistantclient "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/assistant"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/httpjson"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/ledger"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/pricing"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/config"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/assistant"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/options"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/portfolios"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading"
)

// InitializeServices builds the collaborator clients and every module
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Collaborators
	container.LedgerClient = ledger.NewClient(clientOptions(cfg, cfg.LedgerBaseURL), container.StateRepo, log)
	container.PricingClient = pricing.NewClient(clientOptions(cfg, cfg.PricingBaseURL), log)
	container.AssistantClient = newAssistantClient(cfg, log)

	// Events
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// Directory and reconciliation. The directory needs the reconciler and the
	// reconciler needs the directory, so the link is closed after both exist.
	container.Directory = portfolios.NewDirectory(container.LedgerClient, container.Preferences, container.EventManager, log)
	container.Selections = selection.NewRegistry(container.EventManager, log)
	container.Reconciler = positions.NewReconciler(
		container.LedgerClient,
		container.Directory,
		container.Selections,
		container.EventManager,
		log,
	)
	container.Directory.SetReconciler(container.Reconciler)

	// Executors
	container.Gate = trading.NewMutationGate(cfg.SerializeMutations)
	base := trading.Executor{
		Ledger:       container.LedgerClient,
		Active:       container.Directory,
		Reconciler:   container.Reconciler,
		Gate:         container.Gate,
		EventManager: container.EventManager,
		Log:          log,
	}
	container.StockExecutor = trading.NewStockExecutor(base)
	container.CryptoExecutor = trading.NewCryptoExecutor(base)
	container.OptionExecutor = options.NewExecutor(base, container.PricingClient, container.Reconciler, container.Reconciler)

	container.Submitters = map[domain.AssetClass]selection.Submitter{
		domain.AssetStock:  container.StockExecutor.Sell,
		domain.AssetCrypto: container.CryptoExecutor.Sell,
		domain.AssetOption: container.OptionExecutor.Sell,
	}

	container.Assistant = assistant.NewSession(container.AssistantClient, container.Reconciler, container.EventManager, log)

	log.Info().
		Bool("serialize_mutations", container.Gate.Enabled()).
		Str("assistant_backend", cfg.Assistant.Backend).
		Msg("Services initialized")

	return nil
}

func clientOptions(cfg *config.Config, baseURL string) httpjson.Options {
	return httpjson.Options{
		BaseURL: baseURL,
		Timeout: cfg.HTTPTimeout,
		RPS:     cfg.OutboundRPS,
		Burst:   cfg.OutboundBurst,
		Cookie:  cfg.LedgerSessionCookie,
	}
}

func newAssistantClient(cfg *config.Config, log zerolog.Logger) domain.AssistantClient {
	if cfg.Assistant.Backend == config.AssistantBackendOpenAI {
		return assistantclient.NewOpenAIClient(assistantclient.OpenAIConfig{
			APIKey:  cfg.Assistant.OpenAIAPIKey,
			BaseURL: cfg.Assistant.OpenAIBaseURL,
			Model:   cfg.Assistant.OpenAIModel,
		}, log)
	}
	return assistantclient.NewLedgerClient(clientOptions(cfg, cfg.AssistantBaseURL), log)
}

package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/config"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/database"
)

// InitializeDatabases opens client_state.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	stateDB, err := database.New(database.Config{
		Path:    cfg.StateDBPath(),
		Profile: database.ProfileStandard,
		Name:    "client_state",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client state database: %w", err)
	}

	if err := stateDB.Migrate(clientstate.Schema); err != nil {
		stateDB.Close()
		return nil, fmt.Errorf("failed to migrate client state database: %w", err)
	}
	container.StateDB = stateDB

	container.StateRepo = clientstate.NewRepository(stateDB.Conn())
	container.Preferences = clientstate.NewPreferences(container.StateRepo)

	log.Info().Str("path", stateDB.Path()).Msg("Client state database ready")

	return container, nil
}

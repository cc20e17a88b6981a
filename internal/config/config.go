// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Assistant backends
const (
	AssistantBackendLedger = "ledger"
	AssistantBackendOpenAI = "openai"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory holding client_state.db (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	LedgerBaseURL       string
	PricingBaseURL      string // Defaults to LedgerBaseURL
	AssistantBaseURL    string // Defaults to LedgerBaseURL
	LedgerSessionCookie string // Forwarded as the Cookie header on ledger calls

	HTTPTimeout   time.Duration
	OutboundRPS   float64
	OutboundBurst int

	// Per-IP limit on mutating local API requests; zero RPS disables it
	MutationRPS   float64
	MutationBurst int

	SerializeMutations   bool
	StateCleanupCron     string
	PositionsRefreshCron string // Empty disables the periodic refresh

	Assistant AssistantConfig
}

// AssistantConfig selects and configures the assistant backend
type AssistantConfig struct {
	Backend       string // "ledger" or "openai"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("FB_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	ledgerURL := strings.TrimRight(getEnv("LEDGER_BASE_URL", "http://localhost:8000"), "/")

	cfg := &Config{
		DataDir:              dataDir,
		Port:                 getEnvAsInt("FB_PORT", 8090),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LedgerBaseURL:        ledgerURL,
		PricingBaseURL:       strings.TrimRight(getEnv("PRICING_BASE_URL", ledgerURL), "/"),
		AssistantBaseURL:     strings.TrimRight(getEnv("ASSISTANT_BASE_URL", ledgerURL), "/"),
		LedgerSessionCookie:  getEnv("LEDGER_SESSION_COOKIE", ""),
		HTTPTimeout:          time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		OutboundRPS:          getEnvAsFloat("OUTBOUND_RPS", 10),
		OutboundBurst:        getEnvAsInt("OUTBOUND_BURST", 5),
		MutationRPS:          getEnvAsFloat("MUTATION_RPS", 5),
		MutationBurst:        getEnvAsInt("MUTATION_BURST", 10),
		SerializeMutations:   getEnvAsBool("SERIALIZE_MUTATIONS", true),
		StateCleanupCron:     getEnv("STATE_CLEANUP_CRON", "@every 1h"),
		PositionsRefreshCron: getEnv("POSITIONS_REFRESH_CRON", "@every 5m"),
		Assistant: AssistantConfig{
			Backend:       strings.ToLower(getEnv("ASSISTANT_BACKEND", AssistantBackendLedger)),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"LEDGER_BASE_URL":    c.LedgerBaseURL,
		"PRICING_BASE_URL":   c.PricingBaseURL,
		"ASSISTANT_BASE_URL": c.AssistantBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("FB_PORT out of range: %d", c.Port)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.OutboundRPS <= 0 || c.OutboundBurst <= 0 {
		return fmt.Errorf("OUTBOUND_RPS and OUTBOUND_BURST must be positive")
	}
	if c.MutationRPS < 0 {
		return fmt.Errorf("MUTATION_RPS must not be negative")
	}

	switch c.Assistant.Backend {
	case AssistantBackendLedger:
	case AssistantBackendOpenAI:
		if c.Assistant.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when ASSISTANT_BACKEND=openai")
		}
	default:
		return fmt.Errorf("unknown ASSISTANT_BACKEND %q", c.Assistant.Backend)
	}

	return nil
}

// StateDBPath is the location of the durable client state database
func (c *Config) StateDBPath() string {
	return filepath.Join(c.DataDir, "client_state.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

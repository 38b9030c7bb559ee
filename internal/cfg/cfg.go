// Package cfg holds Sentinel's application-level configuration.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Narrator provider names accepted by -narrator-provider.
const (
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
)

// Config adds sentinel-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	DatabaseURL           string
	ModelPath             string
	NarratorProvider      string
	OllamaURL             string
	OllamaModel           string
	ClaudeAPIKey          string
	ClaudeModel           string
	LookbackTransactions  int
	Workers               int
	PollSeconds           int
	MaxIterations         int
	RunContinuous         bool
	SeedTransactions      int
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.ModelPath, "model-path", "models/laundering.json", "path to the exported classifier weights file")
	fs.StringVar(&c.NarratorProvider, "narrator-provider", ProviderOllama, "narrative generation backend: ollama or claude")
	fs.StringVar(&c.OllamaURL, "ollama-url", "http://localhost:11434", "Ollama server URL for narrative generation")
	fs.StringVar(&c.OllamaModel, "ollama-model", "llama3", "Ollama model for narrative generation")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude narrator backend")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for narrative generation")
	fs.IntVar(&c.LookbackTransactions, "lookback-transactions", 10, "historical transactions attached to a report (1..100)")
	fs.IntVar(&c.Workers, "workers", 1, "concurrent triage workers in continuous mode (1..64)")
	fs.IntVar(&c.PollSeconds, "poll-seconds", 1, "seconds between polls when the queue is empty (1..300)")
	fs.IntVar(&c.MaxIterations, "max-iterations", 0, "cap on continuous triage iterations (0 = unlimited)")
	fs.BoolVar(&c.RunContinuous, "continuous", true, "run the continuous triage driver alongside the API")
	fs.IntVar(&c.SeedTransactions, "seed-transactions", 0, "synthetic transactions to insert at startup (dev only)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for report notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.ModelPath == "" {
		errs = append(errs, errors.New("MODEL_PATH is required"))
	}

	switch c.NarratorProvider {
	case ProviderOllama:
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama narrator"))
		}
		if c.OllamaModel == "" {
			errs = append(errs, errors.New("OLLAMA_MODEL is required for the ollama narrator"))
		}
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required for the claude narrator"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required for the claude narrator"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid NARRATOR_PROVIDER %q (must be ollama or claude)", c.NarratorProvider))
	}

	if c.LookbackTransactions <= 0 || c.LookbackTransactions > 100 {
		errs = append(errs, fmt.Errorf("invalid LOOKBACK_TRANSACTIONS %d (must be 1..100)", c.LookbackTransactions))
	}
	if c.Workers <= 0 || c.Workers > 64 {
		errs = append(errs, fmt.Errorf("invalid WORKERS %d (must be 1..64)", c.Workers))
	}
	if c.PollSeconds <= 0 || c.PollSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid POLL_SECONDS %d (must be 1..300)", c.PollSeconds))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_ITERATIONS %d (must be >= 0)", c.MaxIterations))
	}
	if c.SeedTransactions < 0 {
		errs = append(errs, fmt.Errorf("invalid SEED_TRANSACTIONS %d (must be >= 0)", c.SeedTransactions))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		ModelPath:             "models/laundering.json",
		NarratorProvider:      ProviderOllama,
		OllamaURL:             "http://localhost:11434",
		OllamaModel:           "llama3",
		LookbackTransactions:  10,
		Workers:               1,
		PollSeconds:           1,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.NarratorProvider != ProviderOllama {
		t.Errorf("NarratorProvider = %q, want %q", c.NarratorProvider, ProviderOllama)
	}
	if c.OllamaModel != "llama3" {
		t.Errorf("OllamaModel = %q, want llama3", c.OllamaModel)
	}
	if c.LookbackTransactions != 10 {
		t.Errorf("LookbackTransactions = %d, want 10", c.LookbackTransactions)
	}
	if !c.RunContinuous {
		t.Error("RunContinuous should default to true")
	}

	// Defaults must validate as-is.
	if err := c.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-database-url", "postgres://sentinel:pw@db/sentinel",
		"-model-path", "/etc/sentinel/model.json",
		"-narrator-provider", "claude",
		"-claude-api-key", "sk-override",
		"-workers", "4",
		"-max-iterations", "500",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.DatabaseURL != "postgres://sentinel:pw@db/sentinel" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.ModelPath != "/etc/sentinel/model.json" {
		t.Errorf("ModelPath = %q", c.ModelPath)
	}
	if c.NarratorProvider != ProviderClaude {
		t.Errorf("NarratorProvider = %q, want claude", c.NarratorProvider)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want sk-override", c.ClaudeAPIKey)
	}
	if c.Workers != 4 {
		t.Errorf("Workers = %d, want 4", c.Workers)
	}
	if c.MaxIterations != 500 {
		t.Errorf("MaxIterations = %d, want 500", c.MaxIterations)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	claudeBase := func() Config {
		c := validBase()
		c.NarratorProvider = ProviderClaude
		c.ClaudeAPIKey = "sk-test"
		c.ClaudeModel = "claude-sonnet-4-20250514"
		return c
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "base is valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "drain zero",
			mutate:  func(c *Config) { c.DrainSeconds = 0 },
			wantErr: true, errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:    "drain above max",
			mutate:  func(c *Config) { c.DrainSeconds = 301 },
			wantErr: true, errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:    "budget zero",
			mutate:  func(c *Config) { c.ShutdownBudgetSeconds = 0 },
			wantErr: true, errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:    "budget equals drain",
			mutate:  func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds },
			wantErr: true, errSubstr: []string{"must be greater than"},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.APIPort = 0 },
			wantErr: true, errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:    "port above max",
			mutate:  func(c *Config) { c.APIPort = 65536 },
			wantErr: true, errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:    "empty model path",
			mutate:  func(c *Config) { c.ModelPath = "" },
			wantErr: true, errSubstr: []string{"MODEL_PATH"},
		},
		{
			name:    "unknown narrator provider",
			mutate:  func(c *Config) { c.NarratorProvider = "gpt" },
			wantErr: true, errSubstr: []string{"NARRATOR_PROVIDER"},
		},
		{
			name:    "ollama without url",
			mutate:  func(c *Config) { c.OllamaURL = "" },
			wantErr: true, errSubstr: []string{"OLLAMA_URL"},
		},
		{
			name:    "ollama without model",
			mutate:  func(c *Config) { c.OllamaModel = "" },
			wantErr: true, errSubstr: []string{"OLLAMA_MODEL"},
		},
		{
			name:    "lookback zero",
			mutate:  func(c *Config) { c.LookbackTransactions = 0 },
			wantErr: true, errSubstr: []string{"LOOKBACK_TRANSACTIONS"},
		},
		{
			name:    "lookback above max",
			mutate:  func(c *Config) { c.LookbackTransactions = 101 },
			wantErr: true, errSubstr: []string{"LOOKBACK_TRANSACTIONS"},
		},
		{
			name:    "workers zero",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: true, errSubstr: []string{"WORKERS"},
		},
		{
			name:    "workers above max",
			mutate:  func(c *Config) { c.Workers = 65 },
			wantErr: true, errSubstr: []string{"WORKERS"},
		},
		{
			name:    "poll zero",
			mutate:  func(c *Config) { c.PollSeconds = 0 },
			wantErr: true, errSubstr: []string{"POLL_SECONDS"},
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.MaxIterations = -1 },
			wantErr: true, errSubstr: []string{"MAX_ITERATIONS"},
		},
		{
			name:    "negative seed count",
			mutate:  func(c *Config) { c.SeedTransactions = -1 },
			wantErr: true, errSubstr: []string{"SEED_TRANSACTIONS"},
		},
		{
			name: "all fields invalid",
			mutate: func(c *Config) {
				*c = Config{DrainSeconds: math.MinInt32, ShutdownBudgetSeconds: math.MinInt32, APIPort: math.MinInt32}
			},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "MODEL_PATH", "NARRATOR_PROVIDER", "LOOKBACK_TRANSACTIONS", "WORKERS", "POLL_SECONDS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validBase()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}

	t.Run("claude requires key and model", func(t *testing.T) {
		t.Parallel()

		c := claudeBase()
		if err := c.Validate(); err != nil {
			t.Errorf("claude base should validate: %v", err)
		}

		c = claudeBase()
		c.ClaudeAPIKey = ""
		if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "CLAUDE_API_KEY") {
			t.Errorf("error = %v, want CLAUDE_API_KEY", err)
		}

		c = claudeBase()
		c.ClaudeModel = ""
		if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "CLAUDE_MODEL") {
			t.Errorf("error = %v, want CLAUDE_MODEL", err)
		}
	})
}

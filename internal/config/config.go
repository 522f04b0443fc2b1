package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderOpenAI, ProviderAnthropic}

// Config holds all contentforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Monthly spend limit
	Budget BudgetConfig `yaml:"budget"`

	// Template/chain/database locations
	Paths PathsConfig `yaml:"paths"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BudgetConfig configures the usage ledger's budget.
type BudgetConfig struct {
	MonthlyLimit float64 `yaml:"monthly_limit"` // USD; <= 0 disables alerts
}

// PathsConfig configures on-disk locations used by the CLI host.
type PathsConfig struct {
	TemplatesDir string `yaml:"templates_dir"` // extra YAML templates layered over the built-in corpus
	ChainsFile   string `yaml:"chains_file"`   // extra chain definitions
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "contentforge",
		Version: "0.3.0",

		LLM: DefaultLLMConfig(),

		Budget: BudgetConfig{
			MonthlyLimit: 50,
		},

		Paths: PathsConfig{
			DatabasePath: "data/forge.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist; env still applies
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Keys never switch the provider on their own; FORGE_PROVIDER does.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIAPIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicAPIKey = key
	}
	if p := os.Getenv("FORGE_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("FORGE_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if b := os.Getenv("FORGE_MONTHLY_BUDGET"); b != "" {
		if v, err := strconv.ParseFloat(b, 64); err == nil {
			c.Budget.MonthlyLimit = v
		}
	}
	if path := os.Getenv("FORGE_DB"); path != "" {
		c.Paths.DatabasePath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// APIKeyFor returns the configured key for a provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.LLM.OpenAIAPIKey
	case ProviderAnthropic:
		return c.LLM.AnthropicAPIKey
	default:
		return ""
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.APIKeyFor(c.LLM.Provider) == "" {
		return fmt.Errorf("LLM API key not configured for %s (set OPENAI_API_KEY or ANTHROPIC_API_KEY)", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid temperature %.2f (must be between 0 and 2)", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("invalid max_tokens %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearForgeEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "FORGE_PROVIDER", "FORGE_MODEL", "FORGE_MONTHLY_BUDGET", "FORGE_DB"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "contentforge", cfg.Name)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, 50.0, cfg.Budget.MonthlyLimit)
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearForgeEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesYAML(t *testing.T) {
	clearForgeEnv(t)
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
  anthropic_api_key: file-key
  model: claude-3-haiku-20240307
  timeout: 30s
budget:
  monthly_limit: 12.5
logging:
  debug_mode: true
  categories:
    template: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.APIKeyFor(ProviderAnthropic))
	assert.Equal(t, "claude-3-haiku-20240307", cfg.LLM.ResolvedModel())
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 12.5, cfg.Budget.MonthlyLimit)
	// defaults survive for keys the file omits
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.False(t, cfg.Logging.IsCategoryEnabled("template"))
	assert.True(t, cfg.Logging.IsCategoryEnabled("chain"))
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestSaveRoundTrip(t *testing.T) {
	clearForgeEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "forge.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderAnthropic
	cfg.Budget.MonthlyLimit = 99
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid openai",
			mutate: func(c *Config) { c.LLM.OpenAIAPIKey = "k" },
		},
		{
			name:    "missing key for active provider",
			mutate:  func(c *Config) { c.LLM.AnthropicAPIKey = "k" },
			wantErr: "API key not configured for openai",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.LLM.Provider = "gemini" },
			wantErr: "invalid LLM provider",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				c.LLM.OpenAIAPIKey = "k"
				c.LLM.Temperature = 3
			},
			wantErr: "invalid temperature",
		},
		{
			name: "bad timeout",
			mutate: func(c *Config) {
				c.LLM.OpenAIAPIKey = "k"
				c.LLM.Timeout = "soon"
			},
			wantErr: "invalid llm.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvedModel(t *testing.T) {
	assert.Equal(t, DefaultOpenAIModel, LLMConfig{Provider: ProviderOpenAI}.ResolvedModel())
	assert.Equal(t, DefaultAnthropicModel, LLMConfig{Provider: ProviderAnthropic}.ResolvedModel())
	assert.Equal(t, "custom", LLMConfig{Provider: ProviderAnthropic, Model: "custom"}.ResolvedModel())
}

func TestLoggingConfig_DebugModeOff(t *testing.T) {
	c := LoggingConfig{Categories: map[string]bool{"chain": true}}
	assert.False(t, c.IsCategoryEnabled("chain"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banko-ai/banko-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: models.ServerConfig{
			Port:           "8080",
			AllowedOrigins: "*",
		},
		Database: models.DatabaseConfig{
			Type:     models.SQLite,
			FilePath: ":memory:",
		},
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateReportsMissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.type")
}

func TestValidateRejectsThresholdOutOfRange(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.5} {
		cfg := validConfig()
		cfg.Cache.SimilarityThreshold = threshold
		err := cfg.Validate()
		require.Error(t, err, "threshold %v must be fatal at startup", threshold)
		assert.True(t, models.IsErrorType(err, models.ErrorTypeValidation))
	}
}

func TestValidateRejectsNegativeTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.TTLHours = -1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownDefaultProvider(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultProvider = "nonexistent"
	require.Error(t, cfg.Validate())
}

func TestCacheConfigDefaults(t *testing.T) {
	var cfg models.CacheConfig

	assert.Equal(t, 0.75, cfg.Threshold())
	assert.True(t, cfg.Strict(), "strict mode defaults on")
	assert.Equal(t, 24, cfg.TTL())

	off := false
	cfg.StrictMode = &off
	assert.False(t, cfg.Strict())

	cfg.SimilarityThreshold = 0.9
	cfg.TTLHours = 6
	assert.Equal(t, 0.9, cfg.Threshold())
	assert.Equal(t, 6, cfg.TTL())
}

func TestLoadFromFileSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TEST_BANKO_PORT", "9999")
	os.Unsetenv("TEST_BANKO_ORIGINS")

	content := `
server:
  port: "${TEST_BANKO_PORT:-8080}"
  allowed_origins: "${TEST_BANKO_ORIGINS:-*}"
database:
  type: sqlite
  file_path: ":memory:"
cache:
  similarity_threshold: 0.8
providers:
  OpenAI:
    api_key: "key"
default_provider: "OpenAI"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port, "set env var wins")
	assert.Equal(t, "*", cfg.Server.AllowedOrigins, "unset env var takes the default")
	assert.Equal(t, 0.8, cfg.Cache.SimilarityThreshold)

	// Provider keys normalize to lowercase.
	_, ok := cfg.GetProviderConfig("openai")
	assert.True(t, ok)
	assert.Equal(t, "openai", cfg.DefaultProvider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileRejectsNonYAML(t *testing.T) {
	_, err := LoadFromFile("config.json")
	require.Error(t, err)
}

func TestResolveProvider(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultProvider = "openai"

	assert.Equal(t, "openai", cfg.ResolveProvider(""))
	assert.Equal(t, "anthropic", cfg.ResolveProvider("Anthropic"))
}

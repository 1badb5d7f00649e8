package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/banko-ai/banko-backend/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration. It is parsed once
// at process start and treated as immutable afterwards; every service receives
// it (or a slice of it) by handle.
type Config struct {
	Server          models.ServerConfig              `yaml:"server"`
	Database        models.DatabaseConfig            `yaml:"database"`
	Cache           models.CacheConfig               `yaml:"cache"`
	Embeddings      models.ProviderConfig            `yaml:"embeddings"`
	Providers       map[string]models.ProviderConfig `yaml:"providers"`
	DefaultProvider string                           `yaml:"default_provider"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	// Substitute environment variables before parsing
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Normalize provider map keys to lowercase for case-insensitive lookups
	if config.Providers != nil {
		normalized := make(map[string]models.ProviderConfig, len(config.Providers))
		for key, value := range config.Providers {
			normalized[strings.ToLower(key)] = value
		}
		config.Providers = normalized
	}
	config.DefaultProvider = strings.ToLower(config.DefaultProvider)

	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// GetProviderConfig returns the configuration for a specific generation provider
func (c *Config) GetProviderConfig(provider string) (models.ProviderConfig, bool) {
	cfg, exists := c.Providers[strings.ToLower(provider)]
	return cfg, exists
}

// ResolveProvider returns the requested provider name, falling back to the
// configured default when the request doesn't name one.
func (c *Config) ResolveProvider(requested string) string {
	if requested != "" {
		return strings.ToLower(requested)
	}
	return c.DefaultProvider
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks all configuration invariants that must hold before the
// service accepts traffic. Invalid cache settings are fatal at startup, never
// discovered mid-request.
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Database.Type == "" {
		missing = append(missing, "database.type")
	}
	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	if t := c.Cache.SimilarityThreshold; t < 0 || t > 1 {
		return models.NewValidationError(
			fmt.Sprintf("cache.similarity_threshold %.2f out of range [0, 1]", t), nil)
	}
	if c.Cache.TTLHours < 0 {
		return models.NewValidationError(
			fmt.Sprintf("cache.ttl_hours %d must not be negative", c.Cache.TTLHours), nil)
	}
	if c.Cache.EmbeddingDimensions < 0 {
		return models.NewValidationError(
			fmt.Sprintf("cache.embedding_dimensions %d must not be negative", c.Cache.EmbeddingDimensions), nil)
	}

	if c.DefaultProvider != "" {
		if _, ok := c.Providers[c.DefaultProvider]; !ok {
			return models.NewValidationError(
				fmt.Sprintf("default_provider %q is not configured under providers", c.DefaultProvider), nil)
		}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}

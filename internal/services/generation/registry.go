package generation

import (
	"fmt"
	"strings"

	"github.com/banko-ai/banko-backend/internal/config"
	"github.com/banko-ai/banko-backend/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Registry holds one backend per configured provider. Backends are built once
// at startup; per-request provider selection is a map lookup.
type Registry struct {
	backends map[string]Backend
	cfg      *config.Config
}

// NewRegistry builds backends for every provider with a known SDK. Unknown
// provider names are logged and skipped so one typo in the config does not
// take down the rest.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	backends := make(map[string]Backend, len(cfg.Providers))

	for name, providerConfig := range cfg.Providers {
		switch strings.ToLower(name) {
		case "openai":
			backends[name] = NewOpenAIBackend(providerConfig)
		case "anthropic":
			backends[name] = NewAnthropicBackend(providerConfig)
		case "gemini":
			backends[name] = NewGeminiBackend(providerConfig)
		default:
			fiberlog.Warnf("Generation: provider %q has no backend, skipping", name)
		}
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no generation backends configured")
	}

	fiberlog.Infof("Generation: %d backend(s) configured", len(backends))
	return &Registry{backends: backends, cfg: cfg}, nil
}

// Resolve maps a requested provider name (possibly empty) to a backend. An
// empty request falls through to the configured default.
func (r *Registry) Resolve(requested string) (Backend, error) {
	name := r.cfg.ResolveProvider(strings.ToLower(requested))
	backend, ok := r.backends[name]
	if !ok {
		return nil, models.NewValidationError(fmt.Sprintf("provider %q is not configured", name), nil)
	}
	return backend, nil
}

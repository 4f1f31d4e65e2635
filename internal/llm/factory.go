package llm

import (
	"github.com/sant0-9/memomate/internal/config"
)

// NewProvider creates a provider from config, rejecting configs that fail Validate
func NewProvider(cfg *config.Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewOpenAICompatProvider(Options{
		Name:    cfg.ProviderName(),
		BaseURL: cfg.Endpoint(),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}), nil
}

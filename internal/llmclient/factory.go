// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
)

// NewRouterFromConfig builds the tiered LLM client from the router
// configuration. Models are looked up under the "fast" and "powerful" keys;
// missing entries fall back to the configured default model names.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	fastClient, err := newClientForTier(cfg, "fast", cfg.DefaultFastModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}

	powerfulClient, err := newClientForTier(cfg, "powerful", cfg.DefaultPowerfulModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building powerful tier client: %w", err)
	}

	return NewLLMRouter(logger, fastClient, powerfulClient)
}

func newClientForTier(cfg config.LLMRouterConfig, tierKey, defaultModel string, logger *zap.Logger) (schemas.LLMClient, error) {
	modelCfg := cfg.Models[tierKey]
	if modelCfg.Model == "" {
		modelCfg.Model = defaultModel
	}
	if modelCfg.Provider == "" {
		modelCfg.Provider = config.ProviderGemini
	}

	switch modelCfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(modelCfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]",
			modelCfg.Provider, config.ProviderGemini)
	}
}

package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-agent/wayfind/internal/config"
)

func routerConfigWithKeys() config.LLMRouterConfig {
	return config.LLMRouterConfig{
		DefaultFastModel:     "gemini-2.5-flash",
		DefaultPowerfulModel: "gemini-2.5-pro",
		Models: map[string]config.LLMModelConfig{
			"fast":     {APIKey: "key-fast"},
			"powerful": {APIKey: "key-powerful"},
		},
	}
}

func TestNewRouterFromConfig_Success(t *testing.T) {
	router, err := NewRouterFromConfig(routerConfigWithKeys(), setupTestLogger(t))
	require.NoError(t, err)
	require.NotNil(t, router)
	// Tier entries without an explicit model fall back to the defaults.
	assert.Equal(t, "gemini/gemini-2.5-pro", router.ModelIdentifier())
}

func TestNewRouterFromConfig_ExplicitModelWins(t *testing.T) {
	cfg := routerConfigWithKeys()
	mc := cfg.Models["powerful"]
	mc.Model = "gemini-exp"
	cfg.Models["powerful"] = mc

	router, err := NewRouterFromConfig(cfg, setupTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-exp", router.ModelIdentifier())
}

func TestNewRouterFromConfig_MissingAPIKey(t *testing.T) {
	cfg := routerConfigWithKeys()
	delete(cfg.Models, "fast")

	_, err := NewRouterFromConfig(cfg, setupTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast tier")
}

func TestNewRouterFromConfig_UnknownProvider(t *testing.T) {
	cfg := routerConfigWithKeys()
	mc := cfg.Models["fast"]
	mc.Provider = config.LLMProvider("llamacpp")
	cfg.Models["fast"] = mc

	_, err := NewRouterFromConfig(cfg, setupTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

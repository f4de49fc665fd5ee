package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// setupRouter creates a standard LLMRouter instance for testing, along with its mocks and a log observer.
func setupRouter(t *testing.T) (*LLMRouter, *MockLLMClient, *MockLLMClient, *observer.ObservedLogs) {
	t.Helper()
	loggerCore, observedLogs := observer.New(zap.DebugLevel)
	logger := zap.New(loggerCore)

	fastClient := &MockLLMClient{Name: "FastClient"}
	powerfulClient := &MockLLMClient{Name: "PowerfulClient"}

	router, err := NewLLMRouter(logger, fastClient, powerfulClient)
	require.NoError(t, err, "NewLLMRouter should initialize successfully")

	return router, fastClient, powerfulClient, observedLogs
}

func TestNewLLMRouter_Success(t *testing.T) {
	router, fastClient, powerfulClient, _ := setupRouter(t)

	require.NotNil(t, router)
	assert.Equal(t, fastClient, router.clients[schemas.TierFast])
	assert.Equal(t, powerfulClient, router.clients[schemas.TierPowerful])
}

func TestNewLLMRouter_Failure_MissingClients(t *testing.T) {
	logger := setupTestLogger(t)
	validClient := new(MockLLMClient)
	expectedError := "both fast and powerful tier clients must be provided"

	tests := []struct {
		name     string
		fast     schemas.LLMClient
		powerful schemas.LLMClient
	}{
		{"Missing Fast Client", nil, validClient},
		{"Missing Powerful Client", validClient, nil},
		{"Missing Both Clients", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, err := NewLLMRouter(logger, tt.fast, tt.powerful)
			assert.Error(t, err)
			assert.Nil(t, router)
			assert.Contains(t, err.Error(), expectedError)
		})
	}
}

func TestGenerate_Routing(t *testing.T) {
	tests := []struct {
		name     string
		tier     schemas.ModelTier
		expected string
	}{
		{"fast tier routes to fast client", schemas.TierFast, "fast response"},
		{"powerful tier routes to powerful client", schemas.TierPowerful, "powerful response"},
		{"empty tier defaults to powerful", "", "powerful response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, fastClient, powerfulClient, _ := setupRouter(t)
			fastClient.On("Generate", mock.Anything, mock.Anything).Return("fast response", nil).Maybe()
			powerfulClient.On("Generate", mock.Anything, mock.Anything).Return("powerful response", nil).Maybe()

			resp, err := router.Generate(context.Background(), schemas.GenerationRequest{
				UserPrompt: "hello",
				Tier:       tt.tier,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp)
		})
	}
}

func TestGenerate_UnknownTier(t *testing.T) {
	router, _, _, _ := setupRouter(t)

	_, err := router.Generate(context.Background(), schemas.GenerationRequest{
		UserPrompt: "hello",
		Tier:       schemas.ModelTier("galactic"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no LLM client configured for tier")
}

func TestGenerate_PropagatesClientError(t *testing.T) {
	router, _, powerfulClient, _ := setupRouter(t)
	wantErr := errors.New("quota exhausted")
	powerfulClient.On("Generate", mock.Anything, mock.Anything).Return("", wantErr)

	_, err := router.Generate(context.Background(), schemas.GenerationRequest{
		UserPrompt: "hello",
		Tier:       schemas.TierPowerful,
	})
	require.ErrorIs(t, err, wantErr)
}

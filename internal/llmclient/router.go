package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// LLMRouter implements schemas.LLMClient and dispatches each request to the
// client configured for its tier.
type LLMRouter struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
}

// NewLLMRouter creates a new router with the specified clients for each tier.
func NewLLMRouter(logger *zap.Logger, fastClient, powerfulClient schemas.LLMClient) (*LLMRouter, error) {
	if fastClient == nil || powerfulClient == nil {
		return nil, fmt.Errorf("both fast and powerful tier clients must be provided")
	}

	return &LLMRouter{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
	}, nil
}

// Generate selects the appropriate client based on the request's Tier.
func (r *LLMRouter) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierPowerful // Default to the powerful tier if unspecified.
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	r.logger.Debug("Routing LLM request",
		zap.String("tier", string(tier)),
		zap.String("model", client.ModelIdentifier()),
	)
	return client.Generate(ctx, req)
}

// ModelIdentifier implements schemas.LLMClient. The router reports the
// powerful tier's model since that is the default route.
func (r *LLMRouter) ModelIdentifier() string {
	if c, ok := r.clients[schemas.TierPowerful]; ok {
		return c.ModelIdentifier()
	}
	return "router"
}

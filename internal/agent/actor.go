// File: internal/agent/actor.go
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/llmutil"
)

const oracleTimeout = 90 * time.Second

// Actor proposes the next candidate tasks for a browser state. It is the
// only oracle allowed to decide that the objective is complete.
type Actor struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewActor creates the task-proposing oracle.
func NewActor(llm schemas.LLMClient, logger *zap.Logger) *Actor {
	return &Actor{
		llm:    llm,
		logger: logger.Named("actor"),
	}
}

// Propose asks the model for ranked candidate tasks given the current state.
// The screenshot rides along as an inline image when present.
func (a *Actor) Propose(ctx context.Context, input schemas.ActorInput, screenshotB64 string) (*schemas.ActorOutput, error) {
	userPrompt, err := buildActorUserPrompt(input)
	if err != nil {
		return nil, err
	}

	apiCtx, cancel := context.WithTimeout(ctx, oracleTimeout)
	defer cancel()

	req := schemas.GenerationRequest{
		SystemPrompt: actorSystemPrompt,
		UserPrompt:   userPrompt,
		Tier:         schemas.TierPowerful,
		Options:      &schemas.GenerationOptions{ForceJSONFormat: true, Temperature: 0.2},
	}
	if screenshotB64 != "" {
		req.Images = []schemas.ImageAttachment{{MIMEType: "image/png", Data: screenshotB64}}
	}

	response, err := a.llm.Generate(apiCtx, req)
	if err != nil {
		return nil, fmt.Errorf("actor generation failed: %w", err)
	}

	output, err := llmutil.ParseJSONResponse[schemas.ActorOutput](response)
	if err != nil {
		a.logger.Warn("Failed to parse actor response.",
			zap.String("raw_response", llmutil.Truncate(response, 500)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to parse actor response: %w", err)
	}

	a.logger.Debug("Actor proposed tasks.",
		zap.Int("proposed", len(output.ProposedTasks)),
		zap.Bool("is_complete", output.IsComplete),
	)
	return output, nil
}

func buildActorUserPrompt(input schemas.ActorInput) (string, error) {
	completed, err := json.MarshalIndent(input.CompletedTasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling completed tasks: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %s\n\n", input.Objective)
	fmt.Fprintf(&b, "Current URL: %s\n\n", input.CurrentURL)
	fmt.Fprintf(&b, "Completed tasks so far:\n%s\n\n", string(completed))
	fmt.Fprintf(&b, "Current page:\n%s\n", input.CurrentPage)
	return b.String(), nil
}

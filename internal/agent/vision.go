// File: internal/agent/vision.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/llmutil"
)

// Vision scores how well an accomplished-state description matches the
// original instruction. Its matching score is the sole terminal signal.
type Vision struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewVision creates the objective-matching oracle.
func NewVision(llm schemas.LLMClient, logger *zap.Logger) *Vision {
	return &Vision{
		llm:    llm,
		logger: logger.Named("vision"),
	}
}

// Match scores input.DoneDescription against input.OriginInstruction on [0, 1].
func (v *Vision) Match(ctx context.Context, input schemas.VisionInput) (*schemas.VisionOutput, error) {
	apiCtx, cancel := context.WithTimeout(ctx, oracleTimeout)
	defer cancel()

	userPrompt := fmt.Sprintf(
		"Original instruction:\n%s\n\nDescription of the accomplished state:\n%s\n",
		input.OriginInstruction, input.DoneDescription,
	)

	req := schemas.GenerationRequest{
		SystemPrompt: visionSystemPrompt,
		UserPrompt:   userPrompt,
		Tier:         schemas.TierFast,
		Options:      &schemas.GenerationOptions{ForceJSONFormat: true, Temperature: 0},
	}

	response, err := v.llm.Generate(apiCtx, req)
	if err != nil {
		return nil, fmt.Errorf("vision generation failed: %w", err)
	}

	output, err := llmutil.ParseJSONResponse[schemas.VisionOutput](response)
	if err != nil {
		v.logger.Warn("Failed to parse vision response.",
			zap.String("raw_response", llmutil.Truncate(response, 500)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}

	if output.MatchingScore < 0 {
		output.MatchingScore = 0
	} else if output.MatchingScore > 1 {
		output.MatchingScore = 1
	}
	return output, nil
}

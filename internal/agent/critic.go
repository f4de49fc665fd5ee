// File: internal/agent/critic.go
package agent

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/llmutil"
)

// Critic describes where the session stands and what a candidate task will
// have accomplished. It never scores; the vision oracle does that.
type Critic struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewCritic creates the progress-describing oracle.
func NewCritic(llm schemas.LLMClient, logger *zap.Logger) *Critic {
	return &Critic{
		llm:    llm,
		logger: logger.Named("critic"),
	}
}

// Describe narrates the session progress for the given (possibly
// hypothetical) current task.
func (c *Critic) Describe(ctx context.Context, input schemas.CriticInput) (*schemas.CriticOutput, error) {
	userPrompt, err := buildCriticUserPrompt(input)
	if err != nil {
		return nil, err
	}

	apiCtx, cancel := context.WithTimeout(ctx, oracleTimeout)
	defer cancel()

	req := schemas.GenerationRequest{
		SystemPrompt: criticSystemPrompt,
		UserPrompt:   userPrompt,
		Tier:         schemas.TierFast,
		Options:      &schemas.GenerationOptions{ForceJSONFormat: true, Temperature: 0},
	}
	if input.ScreenshotB64 != "" {
		req.Images = []schemas.ImageAttachment{{MIMEType: "image/png", Data: input.ScreenshotB64}}
	}

	response, err := c.llm.Generate(apiCtx, req)
	if err != nil {
		return nil, fmt.Errorf("critic generation failed: %w", err)
	}

	output, err := llmutil.ParseJSONResponse[schemas.CriticOutput](response)
	if err != nil {
		c.logger.Warn("Failed to parse critic response.",
			zap.String("raw_response", llmutil.Truncate(response, 500)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to parse critic response: %w", err)
	}
	return output, nil
}

func buildCriticUserPrompt(input schemas.CriticInput) (string, error) {
	history, err := json.MarshalIndent(input.HistoryCompletedTasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling task history: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Completed tasks:\n%s\n\n", string(history))
	if input.CurrentTask != nil {
		current, err := json.MarshalIndent(input.CurrentTask, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling current task: %w", err)
		}
		fmt.Fprintf(&b, "Task under consideration:\n%s\n", string(current))
	} else {
		b.WriteString("There is no task under consideration; describe the session as it stands.\n")
	}
	return b.String(), nil
}

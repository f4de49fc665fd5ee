package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// terminalJudge decides whether the live page satisfies the objective. It
// always works from a fresh screenshot rather than the state's cached one,
// so slow renders that settled since the last observation still count.
type terminalJudge struct {
	browser   browserDriver
	critic    criticOracle
	vision    visionOracle
	threshold float64
	logger    *zap.Logger
}

func newTerminalJudge(browser browserDriver, critic criticOracle, vision visionOracle, threshold float64, logger *zap.Logger) *terminalJudge {
	return &terminalJudge{
		browser:   browser,
		critic:    critic,
		vision:    vision,
		threshold: threshold,
		logger:    logger,
	}
}

// Judge returns whether the objective is met alongside the raw matching
// score that decided it.
func (j *terminalJudge) Judge(ctx context.Context, state schemas.BrowserState) (bool, float64, error) {
	screenshot, err := j.browser.Screenshot(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("terminal check screenshot: %w", err)
	}

	criticOut, err := j.critic.Describe(ctx, schemas.CriticInput{
		HistoryCompletedTasks: state.CompletedTasks,
		ScreenshotB64:         screenshot,
	})
	if err != nil {
		return false, 0, fmt.Errorf("terminal check critic: %w", err)
	}

	visionOut, err := j.vision.Match(ctx, schemas.VisionInput{
		OriginInstruction: state.Objective,
		DoneDescription:   joinDoneDescription(criticOut.Description, criticOut.DoneObjective),
	})
	if err != nil {
		return false, 0, fmt.Errorf("terminal check vision: %w", err)
	}

	score := visionOut.MatchingScore
	j.logger.Debug("terminal check",
		zap.String("url", state.URL),
		zap.Float64("matching_score", score),
		zap.Float64("threshold", j.threshold))
	return score > j.threshold, score, nil
}

// joinDoneDescription merges the critic's free-form description with its
// restated objective into the single text the vision scorer compares.
func joinDoneDescription(description, doneObjective string) string {
	switch {
	case description == "":
		return doneObjective
	case doneObjective == "":
		return description
	default:
		return description + "\n" + doneObjective
	}
}

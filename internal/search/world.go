package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// WorldModel materializes browser states for the tree search. Every state
// it produces is a fresh immutable snapshot; the shared session is the
// only mutable piece, and it is owned by the caller.
type WorldModel struct {
	objective string
	browser   browserDriver
	judge     *terminalJudge
	logger    *zap.Logger
}

// NewWorldModel builds a world model over an already-initialized session.
func NewWorldModel(objective string, browser browserDriver, judge *terminalJudge, logger *zap.Logger) *WorldModel {
	return &WorldModel{
		objective: objective,
		browser:   browser,
		judge:     judge,
		logger:    logger,
	}
}

// InitState navigates to the configured homepage and snapshots it as the
// root state. It is safe to call repeatedly within one run.
func (w *WorldModel) InitState(ctx context.Context) (schemas.BrowserState, error) {
	obs, err := w.browser.GotoHomepage(ctx)
	if err != nil {
		return schemas.BrowserState{}, fmt.Errorf("homepage observation: %w", err)
	}
	w.logger.Info("initial state created", zap.String("url", obs.URL))
	return schemas.BrowserState{
		WebText:       obs.WebText,
		URL:           obs.URL,
		ScreenshotB64: obs.ScreenshotB64,
		Objective:     w.objective,
	}, nil
}

// Step executes the candidate task against the live browser and snapshots
// the page it left behind. A stop task performs no browser work beyond a
// final observation.
func (w *WorldModel) Step(ctx context.Context, state schemas.BrowserState, action schemas.RankedTask) (schemas.BrowserState, map[string]any, error) {
	task := action.Task

	var (
		obs schemas.PageObservation
		err error
	)
	if task.IsStop() {
		obs, err = w.browser.Observe(ctx)
	} else {
		obs, err = w.browser.ExecuteTask(ctx, task)
	}
	if err != nil {
		return schemas.BrowserState{}, nil, fmt.Errorf("task %q: %w", task.Description, err)
	}

	next := state.WithObservation(obs, task)
	w.logger.Debug("world model stepped",
		zap.String("task", task.Description),
		zap.String("url", next.URL),
		zap.Int("completed_tasks", len(next.CompletedTasks)))
	return next, map[string]any{"url": next.URL}, nil
}

// IsTerminal re-judges the live page against the objective.
func (w *WorldModel) IsTerminal(ctx context.Context, state schemas.BrowserState) (bool, error) {
	terminal, _, err := w.judge.Judge(ctx, state)
	return terminal, err
}

package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
)

// Policy supplies the LLM-guided side of the search: actor proposals
// ranked through the critic/vision pipeline, and the sparse reward that
// pays out only at a judged-terminal state.
type Policy struct {
	actor  actorOracle
	critic criticOracle
	vision visionOracle
	judge  *terminalJudge

	stepPenalty    float64
	terminalReward float64
	logger         *zap.Logger
}

// NewPolicy builds a Policy from the configured reward constants.
func NewPolicy(actor actorOracle, critic criticOracle, vision visionOracle, judge *terminalJudge, cfg config.SearchConfig, logger *zap.Logger) *Policy {
	return &Policy{
		actor:          actor,
		critic:         critic,
		vision:         vision,
		judge:          judge,
		stepPenalty:    cfg.StepPenalty,
		terminalReward: cfg.TerminalReward,
		logger:         logger,
	}
}

// Actions asks the actor for candidate tasks and ranks them best first.
// When the actor declares the objective complete the node gets no
// candidates at all and dead-ends by exhaustion.
func (p *Policy) Actions(ctx context.Context, state schemas.BrowserState) ([]schemas.RankedTask, error) {
	out, err := p.actor.Propose(ctx, schemas.ActorInput{
		Objective:      state.Objective,
		CompletedTasks: state.CompletedTasks,
		CurrentPage:    state.WebText,
		CurrentURL:     state.URL,
	}, state.ScreenshotB64)
	if err != nil {
		return nil, fmt.Errorf("actor proposal: %w", err)
	}

	if out.IsComplete {
		p.logger.Info("actor declared objective complete, no further candidates",
			zap.String("url", state.URL),
			zap.Int("proposed", len(out.ProposedTasks)))
		return []schemas.RankedTask{}, nil
	}

	ranked, err := p.rankTasks(ctx, state, out.ProposedTasks)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("candidate tasks ranked", zap.Int("candidates", len(ranked)))
	return ranked, nil
}

// rankTasks scores every proposal by asking the critic what the task
// accomplishes and the vision scorer how well that matches the objective.
// The critic's session description is taken from the first answer and
// reused, so later calls only contribute their restated objective.
func (p *Policy) rankTasks(ctx context.Context, state schemas.BrowserState, tasks []schemas.TaskWithActions) ([]schemas.RankedTask, error) {
	ranked := make([]schemas.RankedTask, 0, len(tasks))
	description := ""

	for _, task := range tasks {
		criticOut, err := p.critic.Describe(ctx, schemas.CriticInput{
			HistoryCompletedTasks: state.CompletedTasks,
			CurrentTask:           &task,
			ScreenshotB64:         state.ScreenshotB64,
		})
		if err != nil {
			return nil, fmt.Errorf("critic ranking for task %q: %w", task.Description, err)
		}
		if description == "" {
			description = criticOut.Description
		}
		if description == "" || criticOut.DoneObjective == "" {
			p.logger.Warn("critic gave no usable judgement, skipping candidate",
				zap.String("task", task.Description))
			continue
		}

		visionOut, err := p.vision.Match(ctx, schemas.VisionInput{
			OriginInstruction: state.Objective,
			DoneDescription:   joinDoneDescription(description, criticOut.DoneObjective),
		})
		if err != nil {
			return nil, fmt.Errorf("vision ranking for task %q: %w", task.Description, err)
		}

		ranked = append(ranked, schemas.RankedTask{Task: task, Rank: visionOut.MatchingScore})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank > ranked[j].Rank })
	return ranked, nil
}

// FastReward returns the rank computed at proposal time; no model call.
func (p *Policy) FastReward(ctx context.Context, state schemas.BrowserState, action schemas.RankedTask) (float64, map[string]any, error) {
	return action.Rank, map[string]any{"rank": action.Rank}, nil
}

// Reward re-judges the freshly materialized state and pays the terminal
// bonus or the per-step penalty.
func (p *Policy) Reward(ctx context.Context, state schemas.BrowserState, action schemas.RankedTask, details map[string]any) (float64, map[string]any, bool, error) {
	terminal, score, err := p.judge.Judge(ctx, state)
	if err != nil {
		return 0, nil, false, err
	}

	merged := make(map[string]any, len(details)+1)
	for k, v := range details {
		merged[k] = v
	}
	merged["matching_score"] = score

	if terminal {
		return p.terminalReward, merged, true, nil
	}
	return p.stepPenalty, merged, false, nil
}

// IsStopAction reports whether the candidate is a pure stop declaration.
func (p *Policy) IsStopAction(action schemas.RankedTask) bool {
	return action.Task.IsStop()
}

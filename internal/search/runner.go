package search

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/agent"
	"github.com/wayfind-agent/wayfind/internal/browser"
	"github.com/wayfind-agent/wayfind/internal/config"
	"github.com/wayfind-agent/wayfind/internal/llmclient"
	"github.com/wayfind-agent/wayfind/internal/mcts"
	"github.com/wayfind-agent/wayfind/internal/trace"
)

type (
	// state and action fix the engine's type parameters for this domain.
	state  = schemas.BrowserState
	action = schemas.RankedTask
)

// Result is the domain-typed search outcome.
type Result = mcts.Result[state, action]

// Outcome bundles the raw search result with the artifacts derived from it.
type Outcome struct {
	Result   *Result
	DPOPairs []schemas.DPOPair
	// TaskID keys all files written for this run.
	TaskID string
	// OutputDir is where the run's artifacts were written.
	OutputDir string
}

// Run executes one full objective search: it starts a browser session,
// wires the three oracles to the tree search, runs the iteration budget,
// and persists success records, fail traces and mined preference pairs.
func Run(ctx context.Context, cfg *config.Config, objective string, logger *zap.Logger) (*Outcome, error) {
	if objective == "" {
		return nil, fmt.Errorf("objective must not be empty")
	}

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("browser session close failed", zap.Error(err))
		}
	}()

	llm, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("build llm router: %w", err)
	}

	actor := agent.NewActor(llm, logger)
	critic := agent.NewCritic(llm, logger)
	vision := agent.NewVision(llm, logger)
	judge := newTerminalJudge(session, critic, vision, cfg.Search.TerminalThreshold, logger)

	world := NewWorldModel(objective, session, judge, logger)
	policy := NewPolicy(actor, critic, vision, judge, cfg.Search, logger)

	strategy, err := mcts.SimulateStrategyByName(cfg.Search.SimulateStrategy,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return nil, err
	}

	writer := trace.NewWriter(cfg.Output, logger)
	logger.Info("starting objective search",
		zap.String("objective", objective),
		zap.String("task_id", writer.TaskID()),
		zap.Int("iterations", cfg.Search.Iterations),
		zap.Int("depth_limit", cfg.Search.DepthLimit))

	engine := mcts.NewEngine[state, action](world, policy,
		mcts.WithIterations[state, action](cfg.Search.Iterations),
		mcts.WithDepthLimit[state, action](cfg.Search.DepthLimit),
		mcts.WithExplorationWeight[state, action](cfg.Search.ExplorationWeight),
		mcts.WithSimulateStrategy[state, action](strategy),
		mcts.WithMaxNegativeFastRewards[state, action](cfg.Search.MaxNegativeFastRewards),
		mcts.WithOutputStrategy[state, action](mcts.OutputStrategy(cfg.Search.OutputStrategy)),
		mcts.WithIterationTraces[state, action](cfg.Search.TraceEachIteration || cfg.Output.WriteFailTraces),
		mcts.WithIterationSetup[state, action](func(ctx context.Context) error {
			_, err := session.GotoHomepage(ctx)
			return err
		}),
		mcts.WithPathObserver[state, action](writer.TerminalPathObserver()),
		mcts.WithAggregator[state, action](mcts.NewAggregator[state, action](finalAnswer, mcts.WeightEdge)),
		mcts.WithLogger[state, action](logger),
	)

	result, err := engine.Search(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	pairs := MineDPOPairs(result)
	if cfg.Output.WriteDPOPairs {
		if err := writer.WriteDPOPairs(pairs); err != nil {
			logger.Warn("failed to persist dpo pairs", zap.Error(err))
		}
	}
	if cfg.Output.WriteFailTraces {
		if err := writer.WriteFailTraces(result.FailTraces); err != nil {
			logger.Warn("failed to persist fail traces", zap.Error(err))
		}
	}

	return &Outcome{
		Result:    result,
		DPOPairs:  pairs,
		TaskID:    writer.TaskID(),
		OutputDir: writer.Dir(),
	}, nil
}

// finalAnswer feeds the aggregator: the vote is over the final answers
// carried by terminal states.
func finalAnswer(s schemas.BrowserState) (string, bool) {
	if s.FinalAnswer == "" {
		return "", false
	}
	return s.FinalAnswer, true
}

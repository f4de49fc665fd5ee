package mcts

import (
	"math"

	"go.uber.org/zap"
)

// Result is the outcome of one Search call. A run that never reaches a
// terminal node is a valid outcome: TerminalState is nil and Traces may
// hold only the greedy walk.
type Result[S, A any] struct {
	// TerminalState is the state of the chosen path's leaf, nil when the
	// chosen path did not end on a terminal node.
	TerminalState *S
	// CumReward is the cumulative reward of the chosen path, negative
	// infinity when no path resolved.
	CumReward float64
	// BestPath is the chosen path's node sequence, nil when unresolved.
	BestPath []*Node[S, A]
	// Traces holds the resolved extraction walks in order: max-reward,
	// next-best, greedy follow. Unresolved walks are omitted.
	Traces []Trajectory[S, A]
	// FailTraces are the non-terminal per-iteration paths.
	FailTraces []Trajectory[S, A]
	// Root exposes the whole tree for offline inspection and mining.
	Root *Node[S, A]
	// TreeSize is the total number of nodes the run allocated.
	TreeSize int
	// AggregatedAnswer is the weighted-vote answer over terminal leaves,
	// empty when no aggregator was configured or nothing terminal exists.
	AggregatedAnswer string
}

func (e *Engine[S, A]) buildResult(root *Node[S, A], t *tree[S, A], iterPaths [][]*Node[S, A]) *Result[S, A] {
	result := &Result[S, A]{
		CumReward: math.Inf(-1),
		Root:      root,
		TreeSize:  t.Size(),
	}

	maxReward, maxPath := dfsMaxReward([]*Node[S, A]{root})
	if math.IsInf(maxReward, -1) {
		maxPath = nil
		e.logger.Warn("no terminal path found for max-reward extraction")
	} else {
		result.Traces = append(result.Traces, newTrajectory(maxPath))
	}

	nextReward, nextPath := dfsNextReward([]*Node[S, A]{root})
	if math.IsInf(nextReward, -1) {
		nextPath = nil
		e.logger.Debug("no runner-up terminal path found")
	} else {
		result.Traces = append(result.Traces, newTrajectory(nextPath))
	}

	followPath := followMaxReward(root)
	if len(followPath) > 1 {
		result.Traces = append(result.Traces, newTrajectory(followPath))
	}

	var chosen []*Node[S, A]
	switch e.outputStrategy {
	case OutputMaxIter:
		best := math.Inf(-1)
		for _, path := range iterPaths {
			if r := pathReward(path); r > best {
				best, chosen = r, path
			}
		}
	case OutputLastIter:
		if len(iterPaths) > 0 {
			chosen = iterPaths[len(iterPaths)-1]
		}
	case OutputLastTerminalIter:
		for i := len(iterPaths) - 1; i >= 0; i-- {
			if last := iterPaths[i][len(iterPaths[i])-1]; last.Terminal {
				chosen = iterPaths[i]
				break
			}
		}
	default:
		chosen = maxPath
	}
	if chosen != nil {
		result.BestPath = chosen
		result.CumReward = pathReward(chosen)
		if leaf := chosen[len(chosen)-1]; leaf.Terminal {
			result.TerminalState = leaf.State
		}
	}

	if e.keepIterTraces {
		for _, path := range iterPaths {
			if !path[len(path)-1].Terminal {
				result.FailTraces = append(result.FailTraces, newTrajectory(path))
			}
		}
	}

	if e.aggregator != nil {
		result.AggregatedAnswer = e.aggregator.Aggregate(root)
	}

	e.logTree(root)

	e.logger.Info("search result assembled",
		zap.Int("tree_size", result.TreeSize),
		zap.Int("traces", len(result.Traces)),
		zap.Int("fail_traces", len(result.FailTraces)),
		zap.Bool("terminal_found", result.TerminalState != nil),
		zap.Float64("cumulative_reward", result.CumReward))
	return result
}

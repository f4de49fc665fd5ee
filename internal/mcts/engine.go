package mcts

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// deadEndFastReward is assigned to a node whose materialization or
// expansion failed, pushing selection away from the branch without
// removing it from the tree.
const deadEndFastReward = -1.0

// OutputStrategy selects which path of the finished tree becomes the
// primary result.
type OutputStrategy string

const (
	// OutputMaxReward picks the terminal path with the highest cumulative
	// reward via a full tree walk.
	OutputMaxReward OutputStrategy = "max_reward"
	// OutputMaxIter picks the iteration path with the highest cumulative
	// reward.
	OutputMaxIter OutputStrategy = "max_iter"
	// OutputLastIter picks the path of the final iteration.
	OutputLastIter OutputStrategy = "last_iter"
	// OutputLastTerminalIter picks the path of the last iteration that
	// reached a terminal node.
	OutputLastTerminalIter OutputStrategy = "last_terminal_iter"
)

// Engine runs Monte Carlo tree search over a WorldModel guided by a
// SearchConfig. One Engine value serves one Search call at a time; the
// node tree is rebuilt per call.
type Engine[S, A any] struct {
	world  WorldModel[S, A]
	policy SearchConfig[S, A]
	logger *zap.Logger

	iterations        int
	depthLimit        int
	explorationWeight float64
	simulateChoice    SimulateStrategy
	maxNegativeFast   int
	outputStrategy    OutputStrategy
	keepIterTraces    bool

	iterationSetup func(ctx context.Context) error
	observers      []PathObserver[S, A]
	aggregator     *Aggregator[S, A]
}

// Option configures an Engine.
type Option[S, A any] func(*Engine[S, A])

// WithIterations sets how many select/expand/simulate/backpropagate
// rounds a search runs.
func WithIterations[S, A any](n int) Option[S, A] {
	return func(e *Engine[S, A]) { e.iterations = n }
}

// WithDepthLimit caps tree depth; nodes at or past the limit are treated
// as leaves regardless of their reward semantics.
func WithDepthLimit[S, A any](limit int) Option[S, A] {
	return func(e *Engine[S, A]) { e.depthLimit = limit }
}

// WithExplorationWeight sets the UCT exploration coefficient.
func WithExplorationWeight[S, A any](w float64) Option[S, A] {
	return func(e *Engine[S, A]) { e.explorationWeight = w }
}

// WithSimulateStrategy sets how rollouts pick the next child.
func WithSimulateStrategy[S, A any](s SimulateStrategy) Option[S, A] {
	return func(e *Engine[S, A]) { e.simulateChoice = s }
}

// WithMaxNegativeFastRewards sets the rollout dead-end heuristic: a
// rollout aborts at a node once this many of its children carry a
// negative fast reward.
func WithMaxNegativeFastRewards[S, A any](n int) Option[S, A] {
	return func(e *Engine[S, A]) { e.maxNegativeFast = n }
}

// WithOutputStrategy sets how the primary result path is chosen.
func WithOutputStrategy[S, A any](s OutputStrategy) Option[S, A] {
	return func(e *Engine[S, A]) { e.outputStrategy = s }
}

// WithIterationSetup registers a hook run before every iteration,
// typically to reset shared external state such as a browser tab.
func WithIterationSetup[S, A any](hook func(ctx context.Context) error) Option[S, A] {
	return func(e *Engine[S, A]) { e.iterationSetup = hook }
}

// WithPathObserver registers an observer notified after every iteration
// that ends on a terminal node.
func WithPathObserver[S, A any](obs PathObserver[S, A]) Option[S, A] {
	return func(e *Engine[S, A]) { e.observers = append(e.observers, obs) }
}

// WithIterationTraces controls whether non-terminal iteration paths are
// retained in the result as fail traces.
func WithIterationTraces[S, A any](keep bool) Option[S, A] {
	return func(e *Engine[S, A]) { e.keepIterTraces = keep }
}

// WithAggregator sets an answer aggregator applied to the finished tree.
func WithAggregator[S, A any](agg *Aggregator[S, A]) Option[S, A] {
	return func(e *Engine[S, A]) { e.aggregator = agg }
}

// WithLogger sets the engine logger.
func WithLogger[S, A any](logger *zap.Logger) Option[S, A] {
	return func(e *Engine[S, A]) { e.logger = logger }
}

// NewEngine builds an Engine with the given world model and policy.
func NewEngine[S, A any](world WorldModel[S, A], policy SearchConfig[S, A], opts ...Option[S, A]) *Engine[S, A] {
	e := &Engine[S, A]{
		world:             world,
		policy:            policy,
		logger:            zap.NewNop(),
		iterations:        10,
		depthLimit:        6,
		explorationWeight: 1.0,
		simulateChoice:    MaxStrategy(),
		maxNegativeFast:   3,
		outputStrategy:    OutputMaxReward,
		keepIterTraces:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the full iteration budget and extracts the result paths.
func (e *Engine[S, A]) Search(ctx context.Context) (*Result[S, A], error) {
	t := newTree[S, A]()
	initial, err := e.world.InitState(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	root := t.newNode(nil, &initial, nil, 0, nil)

	var iterPaths [][]*Node[S, A]
	for i := 0; i < e.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.iterationSetup != nil {
			if err := e.iterationSetup(ctx); err != nil {
				return nil, fmt.Errorf("iteration %d setup: %w", i+1, err)
			}
		}
		path, cum, err := e.iterate(ctx, t, root)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		iterPaths = append(iterPaths, path)

		last := path[len(path)-1]
		if last.Terminal {
			for _, obs := range e.observers {
				obs.ObserveTerminalPath(ctx, path)
			}
		}
		e.logger.Info("mcts iteration complete",
			zap.Int("iteration", i+1),
			zap.Int("path_length", len(path)),
			zap.Int("leaf_depth", last.Depth),
			zap.Bool("terminal", last.Terminal),
			zap.Float64("cumulative_reward", cum),
			zap.Int("tree_size", t.Size()))
	}

	return e.buildResult(root, t, iterPaths), nil
}

// iterate performs one select/expand/simulate/backpropagate round and
// returns the visited path plus the root's updated mean reward.
func (e *Engine[S, A]) iterate(ctx context.Context, t *tree[S, A], root *Node[S, A]) ([]*Node[S, A], float64, error) {
	path, err := e.selectPath(ctx, root)
	if err != nil {
		return nil, 0, err
	}
	if !e.terminalWithDepthLimit(path[len(path)-1]) {
		path, err = e.rollout(ctx, t, path)
		if err != nil {
			return nil, 0, err
		}
	}
	cum := e.backpropagate(path)
	return path, cum, nil
}

// selectPath walks from the root to a leaf, preferring unvisited children
// and otherwise maximizing UCT. Descending into an already-materialized
// child replays its action against the world model: the world is a single
// shared browser reset to the homepage each iteration, so the actions
// along the path must be re-executed for a later materialization to step
// from the right page. The stored states are never replaced; the replay
// exists for its external side effect.
func (e *Engine[S, A]) selectPath(ctx context.Context, root *Node[S, A]) ([]*Node[S, A], error) {
	path := []*Node[S, A]{root}
	node := root
	for {
		if node.State == nil || len(node.Children) == 0 || e.terminalWithDepthLimit(node) {
			return path, nil
		}
		child := e.uctSelect(node)
		if child.State != nil {
			if _, _, err := e.world.Step(ctx, *node.State, *child.Action); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				e.logger.Warn("replay step failed during selection, marking dead branch",
					zap.Int("node_id", child.ID), zap.Error(err))
				child.markDead()
				return path, nil
			}
		}
		node = child
		path = append(path, node)
	}
}

// uctSelect returns the first unvisited live child if any exist; visited
// children are only compared by UCT once every live sibling has been
// tried. Dead branches fall through to UCT, where their pinned fast
// reward keeps them at the back of the queue.
func (e *Engine[S, A]) uctSelect(node *Node[S, A]) *Node[S, A] {
	for _, child := range node.Children {
		if child.VisitCount == 0 && !child.Dead {
			return child
		}
	}
	best := node.Children[0]
	bestScore := e.uct(best)
	for _, child := range node.Children[1:] {
		if score := e.uct(child); score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

func (e *Engine[S, A]) uct(node *Node[S, A]) float64 {
	exploration := math.Sqrt(math.Log(float64(node.Parent.VisitCount)) / float64(1+node.VisitCount))
	return node.Q() + e.explorationWeight*exploration
}

// terminalWithDepthLimit reports whether the node must be treated as a
// leaf: objective met, or the depth cap reached.
func (e *Engine[S, A]) terminalWithDepthLimit(node *Node[S, A]) bool {
	return node.Terminal || node.Depth >= e.depthLimit
}

// rollout descends from the selected leaf, materializing nodes lazily,
// until a terminal, depth-limited, or dead-end node ends the path.
func (e *Engine[S, A]) rollout(ctx context.Context, t *tree[S, A], path []*Node[S, A]) ([]*Node[S, A], error) {
	node := path[len(path)-1]
	for {
		if node.State == nil || !node.ExpansionAttempted() {
			if err := e.expand(ctx, t, node); err != nil {
				return nil, err
			}
		}
		if node.State == nil || e.terminalWithDepthLimit(node) || len(node.Children) == 0 {
			return path, nil
		}

		fastRewards := make([]float64, len(node.Children))
		negative := 0
		for i, child := range node.Children {
			fastRewards[i] = child.FastReward
			if child.FastReward < 0 {
				negative++
			}
		}
		if negative >= e.maxNegativeFast {
			e.logger.Debug("rollout aborted on negative fast rewards",
				zap.Int("node_id", node.ID), zap.Int("negative_children", negative))
			return path, nil
		}
		node = node.Children[e.simulateChoice(fastRewards)]
		path = append(path, node)
	}
}

// expand materializes the node's state if needed, then populates its
// children. Failures mark the node as a dead branch instead of aborting
// the search; only context cancellation propagates.
func (e *Engine[S, A]) expand(ctx context.Context, t *tree[S, A], node *Node[S, A]) error {
	if node.State == nil {
		next, aux, err := e.world.Step(ctx, *node.Parent.State, *node.Action)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Warn("world model step failed, marking dead branch",
				zap.Int("node_id", node.ID), zap.Error(err))
			node.markDead()
			return nil
		}
		node.State = &next

		reward, details, terminal, err := e.policy.Reward(ctx, next, *node.Action, mergeDetails(node.FastRewardDetails, aux))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Warn("reward evaluation failed, marking dead branch",
				zap.Int("node_id", node.ID), zap.Error(err))
			node.State = nil
			node.markDead()
			return nil
		}
		node.Reward = reward
		node.RewardDetails = details
		node.Terminal = terminal
	}

	if e.terminalWithDepthLimit(node) || node.ExpansionAttempted() {
		return nil
	}

	actions, err := e.policy.Actions(ctx, *node.State)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Warn("action proposal failed, marking dead branch",
			zap.Int("node_id", node.ID), zap.Error(err))
		node.FastReward = deadEndFastReward
		node.Children = []*Node[S, A]{}
		return nil
	}

	if len(actions) == 1 && e.policy.IsStopAction(actions[0]) {
		return e.expandStop(ctx, t, node, actions[0])
	}

	children := make([]*Node[S, A], 0, len(actions))
	for _, action := range actions {
		fast, details, err := e.policy.FastReward(ctx, *node.State, action)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Warn("fast reward failed, skipping candidate",
				zap.Int("node_id", node.ID), zap.Error(err))
			continue
		}
		children = append(children, t.newNode(node, nil, &action, fast, details))
	}
	node.Children = children
	return nil
}

// expandStop handles the case where the only candidate declares the
// objective met: the transition is executed eagerly and becomes a single
// terminal child with no further children.
func (e *Engine[S, A]) expandStop(ctx context.Context, t *tree[S, A], node *Node[S, A], action A) error {
	next, aux, err := e.world.Step(ctx, *node.State, action)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Warn("stop transition failed, marking dead branch",
			zap.Int("node_id", node.ID), zap.Error(err))
		node.FastReward = deadEndFastReward
		node.Children = []*Node[S, A]{}
		return nil
	}
	reward, details, _, err := e.policy.Reward(ctx, next, action, aux)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Warn("stop reward evaluation failed, marking dead branch",
			zap.Int("node_id", node.ID), zap.Error(err))
		node.FastReward = deadEndFastReward
		node.Children = []*Node[S, A]{}
		return nil
	}

	child := t.newNode(node, &next, &action, reward, nil)
	child.Reward = reward
	child.RewardDetails = details
	child.Terminal = true
	child.Children = []*Node[S, A]{}
	node.Children = []*Node[S, A]{child}
	return nil
}

// backpropagate pushes the leaf's reward up the path as a running mean
// and returns the root's updated value. The reward is taken from the last
// materialized node, so a path ending on a dead unmaterialized node
// propagates that node's parent reward rather than a zero value.
// Unmaterialized nodes keep their fast reward untouched.
func (e *Engine[S, A]) backpropagate(path []*Node[S, A]) float64 {
	reward := 0.0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].State != nil {
			reward = path[i].Reward
			break
		}
	}
	cum := 0.0
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		if node.State == nil {
			continue
		}
		node.ValueEstimate = (node.ValueEstimate*float64(node.VisitCount) + reward) / float64(node.VisitCount+1)
		node.VisitCount++
		cum = node.ValueEstimate
	}
	return cum
}

// mergeDetails overlays step details onto fast-reward details without
// mutating either input.
func mergeDetails(base, overlay map[string]any) map[string]any {
	if base == nil && overlay == nil {
		return nil
	}
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

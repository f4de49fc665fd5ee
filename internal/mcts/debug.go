package mcts

import "go.uber.org/zap"

// logTree emits one debug line per node, depth-first, for offline
// inspection of small trees. Skipped entirely unless debug is enabled.
func (e *Engine[S, A]) logTree(root *Node[S, A]) {
	if !e.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	var walk func(node *Node[S, A])
	walk = func(node *Node[S, A]) {
		e.logger.Debug("tree node",
			zap.Int("id", node.ID),
			zap.Int("depth", node.Depth),
			zap.Bool("materialized", node.State != nil),
			zap.Bool("terminal", node.Terminal),
			zap.Int("visits", node.VisitCount),
			zap.Float64("q", node.Q()),
			zap.Float64("fast_reward", node.FastReward),
			zap.Float64("reward", node.Reward),
			zap.Int("children", len(node.Children)))
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
}

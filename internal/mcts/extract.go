package mcts

import "math"

// Trajectory is a root-to-leaf path snapshot taken after the search
// finished. The nodes stay owned by the tree; callers must treat them as
// read-only.
type Trajectory[S, A any] struct {
	Nodes     []*Node[S, A]
	CumReward float64
	Terminal  bool
}

// States returns the materialized states along the path, root first.
func (tr Trajectory[S, A]) States() []S {
	states := make([]S, 0, len(tr.Nodes))
	for _, node := range tr.Nodes {
		if node.State != nil {
			states = append(states, *node.State)
		}
	}
	return states
}

// Actions returns the actions taken along the path. The root carries no
// action, so the slice is one shorter than States.
func (tr Trajectory[S, A]) Actions() []A {
	actions := make([]A, 0, len(tr.Nodes))
	for _, node := range tr.Nodes {
		if node.Action != nil {
			actions = append(actions, *node.Action)
		}
	}
	return actions
}

func newTrajectory[S, A any](path []*Node[S, A]) Trajectory[S, A] {
	nodes := make([]*Node[S, A], len(path))
	copy(nodes, path)
	return Trajectory[S, A]{
		Nodes:     nodes,
		CumReward: pathReward(path),
		Terminal:  path[len(path)-1].Terminal,
	}
}

// pathReward sums per-step rewards along a path. The root contributes
// nothing; it has no inbound action.
func pathReward[S, A any](path []*Node[S, A]) float64 {
	total := 0.0
	for _, node := range path[1:] {
		total += node.Reward
	}
	return total
}

// dfsMaxReward finds the terminal descendant path with the highest
// cumulative reward. It returns negative infinity when no terminal
// descendant is reachable through materialized children.
func dfsMaxReward[S, A any](path []*Node[S, A]) (float64, []*Node[S, A]) {
	cur := path[len(path)-1]
	if cur.Terminal {
		return pathReward(path), path
	}
	bestReward := math.Inf(-1)
	var bestPath []*Node[S, A]
	for _, child := range cur.Children {
		if child.State == nil {
			continue
		}
		reward, childPath := dfsMaxReward(append(append([]*Node[S, A]{}, path...), child))
		if reward > bestReward {
			bestReward, bestPath = reward, childPath
		}
	}
	if bestPath == nil {
		return math.Inf(-1), path
	}
	return bestReward, bestPath
}

// dfsNextReward finds the terminal path with the second-highest
// cumulative reward among the current node's materialized subtrees, used
// to mine contrastive runner-up trajectories. Fewer than two resolvable
// paths yields negative infinity.
func dfsNextReward[S, A any](path []*Node[S, A]) (float64, []*Node[S, A]) {
	cur := path[len(path)-1]
	if cur.Terminal {
		return pathReward(path), path
	}
	type scored struct {
		reward float64
		path   []*Node[S, A]
	}
	var candidates []scored
	for _, child := range cur.Children {
		if child.State == nil {
			continue
		}
		reward, childPath := dfsNextReward(append(append([]*Node[S, A]{}, path...), child))
		if !math.IsInf(reward, -1) {
			candidates = append(candidates, scored{reward, childPath})
		}
	}
	if len(candidates) < 2 {
		return math.Inf(-1), path
	}
	best, second := 0, -1
	for i := 1; i < len(candidates); i++ {
		switch {
		case candidates[i].reward > candidates[best].reward:
			second = best
			best = i
		case second == -1 || candidates[i].reward > candidates[second].reward:
			second = i
		}
	}
	return candidates[second].reward, candidates[second].path
}

// followMaxReward greedily descends from the root to the materialized
// child with the highest raw step reward. Unlike the exhaustive walks it
// may legitimately end on a non-terminal node.
func followMaxReward[S, A any](root *Node[S, A]) []*Node[S, A] {
	path := []*Node[S, A]{root}
	cur := root
	for !cur.Terminal {
		var best *Node[S, A]
		for _, child := range cur.Children {
			if child.State == nil {
				continue
			}
			if best == nil || child.Reward > best.Reward {
				best = child
			}
		}
		if best == nil {
			break
		}
		path = append(path, best)
		cur = best
	}
	return path
}

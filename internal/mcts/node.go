// File: internal/mcts/node.go
package mcts

// Node is one vertex of the search tree. State is nil until the node is
// materialized by stepping the world model; candidate children created
// during expansion start life unmaterialized and carry only a fast reward.
type Node[S, A any] struct {
	// ID is unique within one search run, assigned in creation order.
	ID int

	State  *S
	Action *A
	Parent *Node[S, A]

	// Children is nil while expansion has never been attempted. After an
	// expansion attempt it is non-nil, possibly empty.
	Children []*Node[S, A]

	// FastReward is the cheap ranking estimate assigned at candidate
	// creation, before the node's state exists.
	FastReward        float64
	FastRewardDetails map[string]any

	// Reward is the true reward computed when the state materializes.
	Reward        float64
	RewardDetails map[string]any

	// Terminal marks a state that met the objective. Depth-limited nodes
	// are treated as terminal by the engine but are not marked here.
	Terminal bool

	// Dead marks a branch whose materialization failed. Dead nodes lose
	// the unvisited-first selection preference and score as their pinned
	// fast reward under UCT, so healthy siblings are tried first.
	Dead bool

	Depth int

	// VisitCount (N) and ValueEstimate (Q) are updated only by
	// backpropagation, and only for materialized nodes.
	VisitCount    int
	ValueEstimate float64
}

// Q returns the node's mean backed-up reward. Unmaterialized and dead
// nodes fall back to their fast reward so candidate siblings still order
// sensibly.
func (n *Node[S, A]) Q() float64 {
	if n.Dead || n.State == nil {
		return n.FastReward
	}
	return n.ValueEstimate
}

// markDead flags the node as a failed branch and pins its fast reward to
// the dead-end sentinel.
func (n *Node[S, A]) markDead() {
	n.Dead = true
	n.FastReward = deadEndFastReward
}

// IsMaterialized reports whether the world model has produced this node's state.
func (n *Node[S, A]) IsMaterialized() bool { return n.State != nil }

// ExpansionAttempted reports whether expansion ran for this node, even if it
// produced no children.
func (n *Node[S, A]) ExpansionAttempted() bool { return n.Children != nil }

// tree is the per-run node arena. Node ids restart at zero for every search
// run, so concurrent runs never share a counter.
type tree[S, A any] struct {
	nodes []*Node[S, A]
}

func newTree[S, A any]() *tree[S, A] {
	return &tree[S, A]{}
}

// newNode allocates a node in the arena and wires it to its parent. The
// parent's child list is not touched; expansion owns that.
func (t *tree[S, A]) newNode(parent *Node[S, A], state *S, action *A, fastReward float64, details map[string]any) *Node[S, A] {
	n := &Node[S, A]{
		ID:                len(t.nodes),
		State:             state,
		Action:            action,
		Parent:            parent,
		FastReward:        fastReward,
		FastRewardDetails: details,
	}
	if parent != nil {
		n.Depth = parent.Depth + 1
	}
	t.nodes = append(t.nodes, n)
	return n
}

// Size returns how many nodes the run has allocated.
func (t *tree[S, A]) Size() int { return len(t.nodes) }

package mcts

// WeightPolicy controls how terminal answers are weighted during
// aggregation.
type WeightPolicy string

const (
	// WeightEdge accumulates the reward of every node on the way to the
	// answer's terminal leaf.
	WeightEdge WeightPolicy = "edge"
	// WeightEdgeInverseDepth divides edge rewards by the mean depth of
	// the leaves carrying the answer, favoring shorter resolutions.
	WeightEdgeInverseDepth WeightPolicy = "edge_inverse_depth"
	// WeightUniform counts each terminal leaf once.
	WeightUniform WeightPolicy = "uniform"
)

// Aggregator performs a weighted vote over the answers found at terminal
// leaves of a finished tree.
type Aggregator[S, A any] struct {
	// RetrieveAnswer extracts the candidate answer from a terminal
	// state; returning ok=false skips the leaf.
	RetrieveAnswer func(state S) (string, bool)
	Policy         WeightPolicy
}

// NewAggregator builds an Aggregator; an empty policy defaults to edge
// weighting.
func NewAggregator[S, A any](retrieve func(state S) (string, bool), policy WeightPolicy) *Aggregator[S, A] {
	if policy == "" {
		policy = WeightEdge
	}
	return &Aggregator[S, A]{RetrieveAnswer: retrieve, Policy: policy}
}

// Aggregate walks the materialized tree and returns the answer with the
// highest accumulated weight, or empty when no terminal leaf yields one.
func (a *Aggregator[S, A]) Aggregate(root *Node[S, A]) string {
	weights := map[string]float64{}
	a.visit(root, weights)

	best, bestWeight := "", 0.0
	for answer, weight := range weights {
		if best == "" || weight > bestWeight {
			best, bestWeight = answer, weight
		}
	}
	return best
}

// visit returns the (answer, leaf depth) pairs found in cur's subtree and
// folds their weights into the accumulator on the way back up.
func (a *Aggregator[S, A]) visit(cur *Node[S, A], weights map[string]float64) []answerAtDepth {
	if cur.State == nil {
		return nil
	}
	if cur.Terminal {
		answer, ok := a.RetrieveAnswer(*cur.State)
		if !ok {
			return nil
		}
		switch a.Policy {
		case WeightEdge:
			weights[answer] += cur.Reward
		case WeightEdgeInverseDepth:
			if cur.Depth > 0 {
				weights[answer] += cur.Reward / float64(cur.Depth)
			}
		case WeightUniform:
			weights[answer]++
		}
		return []answerAtDepth{{answer, cur.Depth}}
	}

	var found []answerAtDepth
	depths := map[string][]int{}
	for _, child := range cur.Children {
		childFound := a.visit(child, weights)
		found = append(found, childFound...)
		for _, f := range childFound {
			depths[f.answer] = append(depths[f.answer], f.depth)
		}
	}
	for answer, ds := range depths {
		switch a.Policy {
		case WeightEdge:
			weights[answer] += cur.Reward
		case WeightEdgeInverseDepth:
			weights[answer] += cur.Reward / mean(ds)
		}
	}
	return found
}

type answerAtDepth struct {
	answer string
	depth  int
}

func mean(values []int) float64 {
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values))
}

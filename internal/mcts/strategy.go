package mcts

import (
	"fmt"
	"math/rand"
)

// SimulateStrategy picks the index of the child to descend into during a
// rollout, given the fast rewards of all children.
type SimulateStrategy func(fastRewards []float64) int

// MaxStrategy descends into the child with the highest fast reward,
// breaking ties in favor of the earliest child.
func MaxStrategy() SimulateStrategy {
	return func(fastRewards []float64) int {
		best := 0
		for i, r := range fastRewards {
			if r > fastRewards[best] {
				best = i
			}
		}
		return best
	}
}

// RandomStrategy descends into a uniformly random child.
func RandomStrategy(rng *rand.Rand) SimulateStrategy {
	return func(fastRewards []float64) int {
		return rng.Intn(len(fastRewards))
	}
}

// SampleStrategy samples a child with probability proportional to its fast
// reward, shifted so the lowest-ranked child still has a small chance.
func SampleStrategy(rng *rand.Rand) SimulateStrategy {
	return func(fastRewards []float64) int {
		min := fastRewards[0]
		for _, r := range fastRewards[1:] {
			if r < min {
				min = r
			}
		}
		weights := make([]float64, len(fastRewards))
		total := 0.0
		for i, r := range fastRewards {
			weights[i] = r - min + 1e-6
			total += weights[i]
		}
		target := rng.Float64() * total
		for i, w := range weights {
			target -= w
			if target <= 0 {
				return i
			}
		}
		return len(fastRewards) - 1
	}
}

// SimulateStrategyByName resolves the configured strategy name.
func SimulateStrategyByName(name string, rng *rand.Rand) (SimulateStrategy, error) {
	switch name {
	case "max", "":
		return MaxStrategy(), nil
	case "sample":
		return SampleStrategy(rng), nil
	case "random":
		return RandomStrategy(rng), nil
	default:
		return nil, fmt.Errorf("unknown simulate strategy %q", name)
	}
}

// File: internal/mcts/interfaces.go
package mcts

import "context"

// WorldModel materializes states. Implementations own whatever stateful
// machinery (a browser, a simulator) is needed to produce the successor of
// a state under an action.
type WorldModel[S, A any] interface {
	// InitState produces the root state. The engine calls it once per run.
	InitState(ctx context.Context) (S, error)
	// Step executes action in state and returns the successor state plus
	// any auxiliary details the search config may want when pricing it.
	Step(ctx context.Context, state S, action A) (S, map[string]any, error)
	// IsTerminal reports whether the state satisfies the objective.
	IsTerminal(ctx context.Context, state S) (bool, error)
}

// SearchConfig supplies the domain policy: candidate actions, their cheap
// ranking, and the true reward of a materialized transition.
type SearchConfig[S, A any] interface {
	// Actions returns the candidate actions for a state, best first. An
	// empty slice is a legitimate dead end, not an error.
	Actions(ctx context.Context, state S) ([]A, error)
	// FastReward prices a candidate action without executing it.
	FastReward(ctx context.Context, state S, action A) (float64, map[string]any, error)
	// Reward prices an executed transition and reports terminality.
	// details carries the action's fast-reward details merged with the
	// world model's step details.
	Reward(ctx context.Context, state S, action A, details map[string]any) (float64, map[string]any, bool, error)
	// IsStopAction identifies the action that declares the objective met.
	IsStopAction(action A) bool
}

// PathObserver is notified with a snapshot whenever an iteration ends in a
// terminal node. Observers must not retain the nodes.
type PathObserver[S, A any] interface {
	ObserveTerminalPath(ctx context.Context, path []*Node[S, A])
}

// PathObserverFunc adapts a function to the PathObserver interface.
type PathObserverFunc[S, A any] func(ctx context.Context, path []*Node[S, A])

// ObserveTerminalPath implements PathObserver.
func (f PathObserverFunc[S, A]) ObserveTerminalPath(ctx context.Context, path []*Node[S, A]) {
	f(ctx, path)
}

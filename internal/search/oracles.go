package search

import (
	"context"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// browserDriver is the slice of the browser session the search layer
// drives. *browser.Session satisfies it; tests substitute a scripted fake.
type browserDriver interface {
	GotoHomepage(ctx context.Context) (schemas.PageObservation, error)
	ExecuteTask(ctx context.Context, task schemas.TaskWithActions) (schemas.PageObservation, error)
	Observe(ctx context.Context) (schemas.PageObservation, error)
	Screenshot(ctx context.Context) (string, error)
}

// actorOracle proposes candidate next tasks for the current page.
type actorOracle interface {
	Propose(ctx context.Context, input schemas.ActorInput, screenshotB64 string) (*schemas.ActorOutput, error)
}

// criticOracle describes what a task (or the session as-is) accomplishes.
type criticOracle interface {
	Describe(ctx context.Context, input schemas.CriticInput) (*schemas.CriticOutput, error)
}

// visionOracle scores how well a description matches the objective.
type visionOracle interface {
	Match(ctx context.Context, input schemas.VisionInput) (*schemas.VisionOutput, error)
}

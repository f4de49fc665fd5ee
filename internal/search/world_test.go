package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

func newTestWorld(browser *fakeBrowser) *WorldModel {
	judge := newTerminalJudge(browser,
		&fakeCritic{describe: func(schemas.CriticInput) (*schemas.CriticOutput, error) {
			return &schemas.CriticOutput{Description: "d", DoneObjective: "o"}, nil
		}},
		&fakeVision{match: func(schemas.VisionInput) (*schemas.VisionOutput, error) {
			return &schemas.VisionOutput{MatchingScore: 0.99}, nil
		}},
		0.85, zap.NewNop())
	return NewWorldModel("book a table", browser, judge, zap.NewNop())
}

func TestInitStateSnapshotsHomepage(t *testing.T) {
	browser := &fakeBrowser{homeObs: schemas.PageObservation{
		WebText: "## Page content\nHome",
		URL:     "https://example.com",
	}}
	world := newTestWorld(browser)

	first, err := world.InitState(context.Background())
	require.NoError(t, err)
	second, err := world.InitState(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", first.URL)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, "book a table", first.Objective)
	assert.Empty(t, first.CompletedTasks)
	assert.Equal(t, 2, browser.homeCalls)
}

func TestStepExecutesTaskAndExtendsHistory(t *testing.T) {
	browser := &fakeBrowser{execObs: func(schemas.TaskWithActions) (schemas.PageObservation, error) {
		return schemas.PageObservation{WebText: "menu page", URL: "https://example.com/menu"}, nil
	}}
	world := newTestWorld(browser)

	parent := schemas.BrowserState{
		Objective:      "book a table",
		URL:            "https://example.com",
		CompletedTasks: []schemas.TaskWithActions{task(1, "land on homepage")},
	}
	next, details, err := world.Step(context.Background(), parent,
		schemas.RankedTask{Task: task(2, "open the menu"), Rank: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/menu", next.URL)
	require.Len(t, next.CompletedTasks, 2)
	assert.Equal(t, "open the menu", next.CompletedTasks[1].Description)
	assert.Equal(t, "https://example.com/menu", details["url"])

	// A step never mutates its input state.
	assert.Len(t, parent.CompletedTasks, 1)
	assert.Equal(t, "https://example.com", parent.URL)
}

func TestStepStopTaskObservesWithoutExecuting(t *testing.T) {
	browser := &fakeBrowser{observeObs: schemas.PageObservation{URL: "https://example.com/confirmation"}}
	world := newTestWorld(browser)

	stop := schemas.TaskWithActions{
		Description: "declare success",
		Actions:     schemas.ActionList{schemas.StopAction{Answer: "table booked for 7pm"}},
	}
	next, _, err := world.Step(context.Background(), schemas.BrowserState{Objective: "book a table"},
		schemas.RankedTask{Task: stop, Rank: 1.0})
	require.NoError(t, err)

	assert.Empty(t, browser.executed)
	assert.Equal(t, 1, browser.observed)
	assert.Equal(t, "table booked for 7pm", next.FinalAnswer)
}

func TestStepExecutionFailurePropagates(t *testing.T) {
	browser := &fakeBrowser{execObs: func(schemas.TaskWithActions) (schemas.PageObservation, error) {
		return schemas.PageObservation{}, errors.New("element not visible")
	}}
	world := newTestWorld(browser)

	_, _, err := world.Step(context.Background(), schemas.BrowserState{},
		schemas.RankedTask{Task: task(3, "click the ghost button")})
	require.Error(t, err)
	assert.ErrorContains(t, err, "click the ghost button")
}

func TestIsTerminalDelegatesToJudge(t *testing.T) {
	world := newTestWorld(&fakeBrowser{shot: "aW1n"})

	terminal, err := world.IsTerminal(context.Background(), schemas.BrowserState{Objective: "book a table"})
	require.NoError(t, err)
	assert.True(t, terminal)
}

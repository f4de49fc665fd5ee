package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
)

type fakeBrowser struct {
	homeObs    schemas.PageObservation
	homeCalls  int
	execObs    func(task schemas.TaskWithActions) (schemas.PageObservation, error)
	executed   []schemas.TaskWithActions
	observeObs schemas.PageObservation
	observed   int
	shot       string
	shotErr    error
}

func (f *fakeBrowser) GotoHomepage(ctx context.Context) (schemas.PageObservation, error) {
	f.homeCalls++
	return f.homeObs, nil
}

func (f *fakeBrowser) ExecuteTask(ctx context.Context, task schemas.TaskWithActions) (schemas.PageObservation, error) {
	f.executed = append(f.executed, task)
	return f.execObs(task)
}

func (f *fakeBrowser) Observe(ctx context.Context) (schemas.PageObservation, error) {
	f.observed++
	return f.observeObs, nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) (string, error) {
	return f.shot, f.shotErr
}

type fakeActor struct {
	out   *schemas.ActorOutput
	err   error
	input schemas.ActorInput
}

func (f *fakeActor) Propose(ctx context.Context, input schemas.ActorInput, screenshotB64 string) (*schemas.ActorOutput, error) {
	f.input = input
	return f.out, f.err
}

type fakeCritic struct {
	describe func(input schemas.CriticInput) (*schemas.CriticOutput, error)
	calls    []schemas.CriticInput
}

func (f *fakeCritic) Describe(ctx context.Context, input schemas.CriticInput) (*schemas.CriticOutput, error) {
	f.calls = append(f.calls, input)
	return f.describe(input)
}

type fakeVision struct {
	match func(input schemas.VisionInput) (*schemas.VisionOutput, error)
	calls []schemas.VisionInput
}

func (f *fakeVision) Match(ctx context.Context, input schemas.VisionInput) (*schemas.VisionOutput, error) {
	f.calls = append(f.calls, input)
	return f.match(input)
}

func task(id int, description string) schemas.TaskWithActions {
	return schemas.TaskWithActions{
		ID:          id,
		Description: description,
		Actions:     schemas.ActionList{schemas.ClickAction{WFID: id}},
	}
}

func searchCfg() config.SearchConfig {
	cfg := config.NewDefaultConfig().Search
	return cfg
}

func newTestPolicy(actor *fakeActor, critic *fakeCritic, vision *fakeVision, browser *fakeBrowser) *Policy {
	cfg := searchCfg()
	judge := newTerminalJudge(browser, critic, vision, cfg.TerminalThreshold, zap.NewNop())
	return NewPolicy(actor, critic, vision, judge, cfg, zap.NewNop())
}

func TestActionsRanksCandidatesDescending(t *testing.T) {
	actor := &fakeActor{out: &schemas.ActorOutput{
		ProposedTasks: []schemas.TaskWithActions{task(1, "check the menu"), task(2, "open search")},
	}}
	critic := &fakeCritic{describe: func(input schemas.CriticInput) (*schemas.CriticOutput, error) {
		return &schemas.CriticOutput{
			Description:   "on the landing page",
			DoneObjective: "after " + input.CurrentTask.Description,
		}, nil
	}}
	vision := &fakeVision{match: func(input schemas.VisionInput) (*schemas.VisionOutput, error) {
		if strings.Contains(input.DoneDescription, "open search") {
			return &schemas.VisionOutput{MatchingScore: 0.9}, nil
		}
		return &schemas.VisionOutput{MatchingScore: 0.3}, nil
	}}
	policy := newTestPolicy(actor, critic, vision, &fakeBrowser{})

	ranked, err := policy.Actions(context.Background(), schemas.BrowserState{Objective: "find the search page"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "open search", ranked[0].Task.Description)
	assert.InDelta(t, 0.9, ranked[0].Rank, 1e-9)
	assert.Equal(t, "check the menu", ranked[1].Task.Description)
	assert.InDelta(t, 0.3, ranked[1].Rank, 1e-9)
}

func TestActionsCompleteYieldsNoCandidates(t *testing.T) {
	actor := &fakeActor{out: &schemas.ActorOutput{
		IsComplete:    true,
		FinalResponse: "done",
		ProposedTasks: []schemas.TaskWithActions{task(1, "wrap up")},
	}}
	critic := &fakeCritic{describe: func(schemas.CriticInput) (*schemas.CriticOutput, error) {
		t.Fatal("critic must not be consulted when the actor is done")
		return nil, nil
	}}
	vision := &fakeVision{match: func(schemas.VisionInput) (*schemas.VisionOutput, error) {
		return &schemas.VisionOutput{}, nil
	}}
	policy := newTestPolicy(actor, critic, vision, &fakeBrowser{})

	ranked, err := policy.Actions(context.Background(), schemas.BrowserState{Objective: "anything"})
	require.NoError(t, err)
	require.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestActionsSkipsCandidatesWithoutJudgement(t *testing.T) {
	actor := &fakeActor{out: &schemas.ActorOutput{
		ProposedTasks: []schemas.TaskWithActions{task(1, "vague idea"), task(2, "solid idea")},
	}}
	critic := &fakeCritic{describe: func(input schemas.CriticInput) (*schemas.CriticOutput, error) {
		if input.CurrentTask.ID == 1 {
			return &schemas.CriticOutput{}, nil
		}
		return &schemas.CriticOutput{Description: "desc", DoneObjective: "done"}, nil
	}}
	vision := &fakeVision{match: func(schemas.VisionInput) (*schemas.VisionOutput, error) {
		return &schemas.VisionOutput{MatchingScore: 0.4}, nil
	}}
	policy := newTestPolicy(actor, critic, vision, &fakeBrowser{})

	ranked, err := policy.Actions(context.Background(), schemas.BrowserState{})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "solid idea", ranked[0].Task.Description)
	assert.Len(t, vision.calls, 1)
}

func TestActionsActorErrorPropagates(t *testing.T) {
	actor := &fakeActor{err: errors.New("model unavailable")}
	policy := newTestPolicy(actor, &fakeCritic{}, &fakeVision{}, &fakeBrowser{})

	_, err := policy.Actions(context.Background(), schemas.BrowserState{})
	assert.ErrorContains(t, err, "model unavailable")
}

func TestFastRewardIsTheRank(t *testing.T) {
	policy := newTestPolicy(&fakeActor{}, &fakeCritic{}, &fakeVision{}, &fakeBrowser{})

	reward, details, err := policy.FastReward(context.Background(), schemas.BrowserState{},
		schemas.RankedTask{Task: task(1, "x"), Rank: 0.42})
	require.NoError(t, err)
	assert.InDelta(t, 0.42, reward, 1e-9)
	assert.Equal(t, 0.42, details["rank"])
}

func TestRewardTerminalAboveThreshold(t *testing.T) {
	critic := &fakeCritic{describe: func(schemas.CriticInput) (*schemas.CriticOutput, error) {
		return &schemas.CriticOutput{Description: "bought the socks", DoneObjective: "socks purchased"}, nil
	}}
	vision := &fakeVision{match: func(schemas.VisionInput) (*schemas.VisionOutput, error) {
		return &schemas.VisionOutput{MatchingScore: 0.95}, nil
	}}
	policy := newTestPolicy(&fakeActor{}, critic, vision, &fakeBrowser{shot: "c2NyZWVu"})

	reward, details, terminal, err := policy.Reward(context.Background(),
		schemas.BrowserState{Objective: "buy socks"}, schemas.RankedTask{}, map[string]any{"rank": 0.5})
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.InDelta(t, 1.0, reward, 1e-9)
	assert.Equal(t, 0.95, details["matching_score"])
	assert.Equal(t, 0.5, details["rank"])
}

func TestRewardNonTerminalPaysStepPenalty(t *testing.T) {
	critic := &fakeCritic{describe: func(schemas.CriticInput) (*schemas.CriticOutput, error) {
		return &schemas.CriticOutput{Description: "still browsing", DoneObjective: "nothing yet"}, nil
	}}
	vision := &fakeVision{match: func(schemas.VisionInput) (*schemas.VisionOutput, error) {
		return &schemas.VisionOutput{MatchingScore: 0.2}, nil
	}}
	policy := newTestPolicy(&fakeActor{}, critic, vision, &fakeBrowser{})

	reward, _, terminal, err := policy.Reward(context.Background(),
		schemas.BrowserState{Objective: "buy socks"}, schemas.RankedTask{}, nil)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.InDelta(t, -0.01, reward, 1e-9)
}

func TestRewardScreenshotFailurePropagates(t *testing.T) {
	policy := newTestPolicy(&fakeActor{}, &fakeCritic{}, &fakeVision{},
		&fakeBrowser{shotErr: errors.New("tab crashed")})

	_, _, _, err := policy.Reward(context.Background(), schemas.BrowserState{}, schemas.RankedTask{}, nil)
	assert.ErrorContains(t, err, "tab crashed")
}

func TestIsStopAction(t *testing.T) {
	policy := newTestPolicy(&fakeActor{}, &fakeCritic{}, &fakeVision{}, &fakeBrowser{})

	stop := schemas.RankedTask{Task: schemas.TaskWithActions{
		Description: "finish",
		Actions:     schemas.ActionList{schemas.StopAction{Answer: "42"}},
	}}
	assert.True(t, policy.IsStopAction(stop))
	assert.False(t, policy.IsStopAction(schemas.RankedTask{Task: task(1, "click")}))
}

package trace

import (
	"bufio"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
	"github.com/wayfind-agent/wayfind/internal/mcts"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(config.OutputConfig{Dir: t.TempDir(), TaskID: "test-task"}, zap.NewNop())
}

func terminalPath(t *testing.T) []*pathNode {
	t.Helper()
	rootState := schemas.BrowserState{
		Objective:     "find cheap flights",
		URL:           "https://example.com",
		WebText:       "## Page content\nWelcome",
		ScreenshotB64: base64.StdEncoding.EncodeToString([]byte("fake-png-root")),
	}
	task := schemas.TaskWithActions{
		ID:          1,
		Description: "open the flights tab",
		Actions:     schemas.ActionList{schemas.ClickAction{WFID: 3}},
	}
	action := schemas.RankedTask{Task: task, Rank: 0.9}
	leafState := rootState.WithObservation(schemas.PageObservation{
		WebText:       "## Page content\nFlights",
		URL:           "https://example.com/flights",
		ScreenshotB64: base64.StdEncoding.EncodeToString([]byte("fake-png-leaf")),
	}, task)

	root := &pathNode{ID: 0, State: &rootState}
	leaf := &pathNode{ID: 1, State: &leafState, Action: &action, Parent: root, Terminal: true, Depth: 1, Reward: 1.0}
	root.Children = []*pathNode{leaf}
	return []*pathNode{root, leaf}
}

func TestWriteSuccessPathAppendsRecords(t *testing.T) {
	w := newTestWriter(t)
	path := terminalPath(t)

	require.NoError(t, w.WriteSuccessPath(path))
	require.NoError(t, w.WriteSuccessPath(path))

	raw, err := os.ReadFile(filepath.Join(w.Dir(), "success_iter_output.json"))
	require.NoError(t, err)

	var records []successRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)

	rec := records[0]
	require.Len(t, rec.Conversations, 4)
	assert.Equal(t, "system", rec.Conversations[0].From)
	assert.Equal(t, "human", rec.Conversations[1].From)
	assert.Equal(t, "gpt", rec.Conversations[2].From)
	assert.Contains(t, rec.Conversations[2].Value, "open the flights tab")
	assert.Contains(t, rec.Conversations[3].Value, "https://example.com/flights")

	require.Len(t, rec.Images, 2)
	for _, img := range rec.Images {
		_, err := os.Stat(filepath.Join(w.Dir(), img))
		assert.NoError(t, err)
	}
}

func TestWriteSuccessPathSkipsUnmaterializedNodes(t *testing.T) {
	w := newTestWriter(t)
	path := terminalPath(t)
	ghostAction := schemas.RankedTask{Task: schemas.TaskWithActions{Description: "ghost"}}
	path = append(path, &pathNode{ID: 2, Action: &ghostAction})

	require.NoError(t, w.WriteSuccessPath(path))

	raw, err := os.ReadFile(filepath.Join(w.Dir(), "success_iter_output.json"))
	require.NoError(t, err)
	var records []successRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	for _, msg := range records[0].Conversations {
		assert.NotContains(t, msg.Value, "ghost")
	}
}

func TestWriteDPOPairsJSONL(t *testing.T) {
	w := newTestWriter(t)
	pairs := []schemas.DPOPair{
		{
			State: schemas.DPOState{Objective: "buy socks", WebText: "shop page"},
			Winning: schemas.DPOAction{
				Task: schemas.TaskWithActions{Description: "open cart", Actions: schemas.ActionList{schemas.ClickAction{WFID: 7}}},
				Rank: 0.8,
			},
			Losing: schemas.DPOAction{
				Task: schemas.TaskWithActions{Description: "scroll down", Actions: schemas.ActionList{schemas.ScrollAction{Direction: "down"}}},
				Rank: 0.2,
			},
		},
	}

	require.NoError(t, w.WriteDPOPairs(pairs))

	f, err := os.Open(filepath.Join(w.Dir(), "dpo_pairs.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []dpoEntry
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var entry dpoEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0].Prompt, "buy socks")
	assert.Contains(t, lines[0].Chosen, "open cart")
	assert.Contains(t, lines[0].Rejected, "scroll down")
}

func TestWriteDPOPairsNoPairsWritesNothing(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteDPOPairs(nil))
	_, err := os.Stat(filepath.Join(w.Dir(), "dpo_pairs.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFailTraces(t *testing.T) {
	w := newTestWriter(t)
	path := terminalPath(t)
	path[len(path)-1].Terminal = false
	traces := []trajectory{newFailTrajectory(path)}

	require.NoError(t, w.WriteFailTraces(traces))

	raw, err := os.ReadFile(filepath.Join(w.Dir(), "fail_traces.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "open the flights tab")
	assert.NotContains(t, string(raw), base64.StdEncoding.EncodeToString([]byte("fake-png-leaf")))
}

func newFailTrajectory(path []*pathNode) trajectory {
	return mcts.Trajectory[schemas.BrowserState, schemas.RankedTask]{
		Nodes:     path,
		CumReward: -0.01,
	}
}

func TestNewWriterMintsTaskID(t *testing.T) {
	w := NewWriter(config.OutputConfig{Dir: t.TempDir()}, zap.NewNop())
	assert.NotEmpty(t, w.TaskID())
}

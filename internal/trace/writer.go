package trace

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
	"github.com/wayfind-agent/wayfind/internal/llmutil"
	"github.com/wayfind-agent/wayfind/internal/mcts"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pathNode aliases the search tree's node type for this domain.
type pathNode = mcts.Node[schemas.BrowserState, schemas.RankedTask]

// trajectory aliases the extracted path type for this domain.
type trajectory = mcts.Trajectory[schemas.BrowserState, schemas.RankedTask]

// successSystemPrompt opens every exported fine-tuning conversation.
const successSystemPrompt = "You are a web navigation agent. Given an objective, " +
	"the current page and the tasks completed so far, respond with the next " +
	"task and the elementary browser actions that carry it out."

// promptWebTextLimit bounds page text embedded in exported records.
const promptWebTextLimit = 4000

// message is one turn of an exported conversation.
type message struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// successRecord is one terminal trajectory rendered as a fine-tuning
// conversation with references to the screenshots taken along the way.
type successRecord struct {
	Conversations []message `json:"conversations"`
	Images        []string  `json:"images"`
}

// Writer persists search artifacts under <dir>/<task_id>/. All writes are
// best-effort from the search's point of view: callers log and continue.
type Writer struct {
	dir    string
	taskID string
	logger *zap.Logger

	successCount int
}

// NewWriter resolves the run's output directory, minting a task id when
// the config leaves it empty.
func NewWriter(cfg config.OutputConfig, logger *zap.Logger) *Writer {
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	return &Writer{
		dir:    filepath.Join(cfg.Dir, taskID),
		taskID: taskID,
		logger: logger,
	}
}

// TaskID returns the identifier all artifacts of this run are keyed by.
func (w *Writer) TaskID() string { return w.taskID }

// Dir returns the run's artifact directory.
func (w *Writer) Dir() string { return w.dir }

// TerminalPathObserver adapts the writer to the engine's observer hook so
// every successful iteration is persisted as it happens.
func (w *Writer) TerminalPathObserver() mcts.PathObserver[schemas.BrowserState, schemas.RankedTask] {
	return mcts.PathObserverFunc[schemas.BrowserState, schemas.RankedTask](
		func(ctx context.Context, path []*pathNode) {
			if err := w.WriteSuccessPath(path); err != nil {
				w.logger.Warn("failed to persist success trajectory", zap.Error(err))
			}
		})
}

// WriteSuccessPath appends a terminal trajectory to
// success_iter_output.json and stores its screenshots alongside.
func (w *Writer) WriteSuccessPath(path []*pathNode) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	w.successCount++

	record := successRecord{
		Conversations: []message{{From: "system", Value: successSystemPrompt}},
	}
	for i, node := range path {
		if node.State == nil {
			continue
		}
		state := node.State

		if node.Action != nil {
			taskJSON, err := json.Marshal(node.Action.Task)
			if err != nil {
				return fmt.Errorf("marshal task: %w", err)
			}
			record.Conversations = append(record.Conversations, message{From: "gpt", Value: string(taskJSON)})
		}
		record.Conversations = append(record.Conversations, message{
			From: "human",
			Value: fmt.Sprintf("Objective: %s\nCurrent URL: %s\nPage:\n%s",
				state.Objective, state.URL, llmutil.Truncate(state.WebText, promptWebTextLimit)),
		})

		if state.ScreenshotB64 != "" {
			name := fmt.Sprintf("success_%02d_step_%02d.png", w.successCount, i)
			if err := w.writeScreenshot(name, state.ScreenshotB64); err != nil {
				w.logger.Warn("failed to store screenshot", zap.String("file", name), zap.Error(err))
			} else {
				record.Images = append(record.Images, name)
			}
		}
	}

	file := filepath.Join(w.dir, "success_iter_output.json")
	records, err := readRecords(file)
	if err != nil {
		return err
	}
	records = append(records, record)
	if err := writeJSON(file, records); err != nil {
		return err
	}
	w.logger.Info("success trajectory persisted",
		zap.String("file", file), zap.Int("steps", len(path)))
	return nil
}

// WriteFailTraces stores the non-terminal iteration paths for offline
// failure analysis.
func (w *Writer) WriteFailTraces(traces []trajectory) error {
	if len(traces) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	type failTrace struct {
		States    []schemas.BrowserState `json:"states"`
		Actions   []schemas.RankedTask   `json:"actions"`
		CumReward float64                `json:"cum_reward"`
	}
	out := make([]failTrace, 0, len(traces))
	for _, tr := range traces {
		states := tr.States()
		for i := range states {
			// Screenshots stay on disk only for successes; fail traces
			// would bloat the JSON with base64 payloads.
			states[i].ScreenshotB64 = ""
			states[i].WebText = llmutil.Truncate(states[i].WebText, promptWebTextLimit)
		}
		out = append(out, failTrace{States: states, Actions: tr.Actions(), CumReward: tr.CumReward})
	}

	file := filepath.Join(w.dir, "fail_traces.json")
	if err := writeJSON(file, out); err != nil {
		return err
	}
	w.logger.Info("fail traces persisted", zap.String("file", file), zap.Int("count", len(out)))
	return nil
}

func (w *Writer) writeScreenshot(name, b64 string) error {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	return os.WriteFile(filepath.Join(w.dir, name), raw, 0o644)
}

func readRecords(file string) ([]successRecord, error) {
	raw, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var records []successRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return records, nil
}

func writeJSON(file string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", file, err)
	}
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}

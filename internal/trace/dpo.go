package trace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/api/schemas"
)

// dpoEntry is the JSONL row shape consumed by preference-training
// pipelines: a prompt and the two competing completions.
type dpoEntry struct {
	Prompt   string `json:"prompt"`
	Chosen   string `json:"chosen"`
	Rejected string `json:"rejected"`
}

// WriteDPOPairs renders mined preference pairs as dpo_pairs.jsonl, one
// JSON object per line.
func (w *Writer) WriteDPOPairs(pairs []schemas.DPOPair) error {
	if len(pairs) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file := filepath.Join(w.dir, "dpo_pairs.jsonl")
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	for _, pair := range pairs {
		entry := dpoEntry{
			Prompt: fmt.Sprintf("Objective: %s\nCurrent page:\n%s",
				pair.State.Objective, pair.State.WebText),
			Chosen:   renderDPOAction(pair.Winning),
			Rejected: renderDPOAction(pair.Losing),
		}
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal dpo entry: %w", err)
		}
		if _, err := buf.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", file, err)
	}

	w.logger.Info("dpo pairs persisted", zap.String("file", file), zap.Int("pairs", len(pairs)))
	return nil
}

func renderDPOAction(a schemas.DPOAction) string {
	taskJSON, err := json.Marshal(a.Task)
	if err != nil {
		taskJSON = []byte("{}")
	}
	return fmt.Sprintf("Action: %s\nDescription: %s", taskJSON, a.Task.Description)
}

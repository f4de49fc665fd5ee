package schemas

// TaskWithActions is one proposed unit of work: a natural-language
// description plus the elementary actions that carry it out. Result is
// filled only for STOP tasks that produced a final answer.
type TaskWithActions struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	Actions     ActionList `json:"actions_to_be_performed"`
	Result      string     `json:"result,omitempty"`
}

// IsStop reports whether the task is a pure stop declaration, i.e. a single
// STOP action and nothing else.
func (t TaskWithActions) IsStop() bool {
	if len(t.Actions) != 1 {
		return false
	}
	return t.Actions[0].Kind() == ActionStop
}

// StopAnswer returns the answer carried by a stop task, if any.
func (t TaskWithActions) StopAnswer() (string, bool) {
	if !t.IsStop() {
		return "", false
	}
	stop, ok := t.Actions[0].(StopAction)
	if !ok {
		return "", false
	}
	return stop.Answer, true
}

// RankedTask pairs a candidate task with the score the critique pipeline
// assigned to it. Higher ranks are explored first.
type RankedTask struct {
	Task TaskWithActions `json:"task_with_action"`
	Rank float64         `json:"rank"`
}

// PageObservation is what the browser layer reports after settling: the
// page rendered as annotated text, the address bar, and a screenshot.
type PageObservation struct {
	WebText       string `json:"web_text"`
	URL           string `json:"current_url"`
	ScreenshotB64 string `json:"screenshot,omitempty"`
}

// BrowserState is one search-tree state: the observation at that point plus
// the tasks completed to reach it. States are immutable once created; a step
// always builds a fresh state rather than mutating its parent.
type BrowserState struct {
	WebText        string            `json:"web_text"`
	URL            string            `json:"current_url"`
	ScreenshotB64  string            `json:"screenshot,omitempty"`
	Objective      string            `json:"objective"`
	CompletedTasks []TaskWithActions `json:"completed_tasks"`
	// FinalAnswer is set when a stop task concluded the trajectory.
	FinalAnswer string `json:"final_response,omitempty"`
}

// WithObservation returns a copy of s carrying a new page observation and
// the extended completed-task history.
func (s BrowserState) WithObservation(obs PageObservation, done TaskWithActions) BrowserState {
	completed := make([]TaskWithActions, 0, len(s.CompletedTasks)+1)
	completed = append(completed, s.CompletedTasks...)
	completed = append(completed, done)

	next := BrowserState{
		WebText:        obs.WebText,
		URL:            obs.URL,
		ScreenshotB64:  obs.ScreenshotB64,
		Objective:      s.Objective,
		CompletedTasks: completed,
	}
	if answer, ok := done.StopAnswer(); ok {
		next.FinalAnswer = answer
	}
	return next
}

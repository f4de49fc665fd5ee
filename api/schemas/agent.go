package schemas

// -- Actor --

// ActorInput is the context handed to the task-proposing model.
type ActorInput struct {
	Objective      string            `json:"objective"`
	CompletedTasks []TaskWithActions `json:"completed_tasks"`
	CurrentPage    string            `json:"current_page_dom"`
	CurrentURL     string            `json:"current_page_url"`
}

// ActorOutput is the structured response of the task-proposing model.
type ActorOutput struct {
	Thought string `json:"thought"`
	// ProposedTasks are ranked candidates for the next step, most promising
	// first according to the model's own ordering.
	ProposedTasks []TaskWithActions `json:"proposed_tasks"`
	// IsComplete signals that the model believes the objective is already
	// met and the proposed tasks are closing moves rather than exploration.
	IsComplete bool `json:"is_complete"`
	// FinalResponse carries the answer when IsComplete is set.
	FinalResponse string `json:"final_response,omitempty"`
}

// -- Critic --

// CriticInput asks for a description of where a hypothetical task would
// leave the session, given the history so far and the current screenshot.
type CriticInput struct {
	HistoryCompletedTasks []TaskWithActions `json:"history_completed_tasks"`
	CurrentTask           *TaskWithActions  `json:"current_task,omitempty"`
	ScreenshotB64         string            `json:"-"`
}

// CriticOutput is the critic's structured judgement.
type CriticOutput struct {
	Thought     string `json:"thought"`
	Description string `json:"description"`
	// DoneObjective restates, in the critic's words, what will have been
	// accomplished once the task under review is finished.
	DoneObjective string `json:"done_objective"`
}

// -- Vision scorer --

// VisionInput asks how well an accomplished-state description matches the
// original instruction.
type VisionInput struct {
	OriginInstruction string `json:"origin_instruction"`
	DoneDescription   string `json:"done_description"`
}

// VisionOutput scores the match on [0, 1]. Scores above the configured
// terminal threshold mark a state as a success.
type VisionOutput struct {
	Thought       string  `json:"thought"`
	MatchingScore float64 `json:"matching_score"`
}

package schemas

// DPOState is the prompt side of a preference pair: the observation the
// agent saw when the two sibling branches diverged.
type DPOState struct {
	Objective      string            `json:"objective"`
	WebText        string            `json:"web_text"`
	CompletedTasks []TaskWithActions `json:"completed_tasks"`
}

// DPOAction is one side of a preference pair with the node's empirical
// statistics at mining time.
type DPOAction struct {
	Task       TaskWithActions `json:"task"`
	Rank       float64         `json:"rank"`
	Visits     int             `json:"visits"`
	MeanReward float64         `json:"mean_reward"`
}

// DPOPair is one (winning, losing) preference example mined from sibling
// nodes along a successful trajectory.
type DPOPair struct {
	State   DPOState  `json:"state"`
	Winning DPOAction `json:"winning_action"`
	Losing  DPOAction `json:"losing_action"`
}

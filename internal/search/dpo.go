package search

import (
	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/llmutil"
	"github.com/wayfind-agent/wayfind/internal/mcts"
)

// dpoWebTextLimit bounds the page text carried into a mined pair so the
// training prompt stays a reasonable size.
const dpoWebTextLimit = 1000

// MineDPOPairs extracts preference pairs from the winning path of a
// finished search: at every step, the sibling branches not taken become
// losing examples against the action that was.
func MineDPOPairs(result *mcts.Result[schemas.BrowserState, schemas.RankedTask]) []schemas.DPOPair {
	path := result.BestPath
	if len(path) < 2 {
		return nil
	}

	var pairs []schemas.DPOPair
	for i := 0; i < len(path)-1; i++ {
		cur, next := path[i], path[i+1]
		if cur.State == nil || next.Action == nil {
			continue
		}
		winning := *next.Action

		for _, sibling := range cur.Children {
			if sibling == next || sibling.Action == nil {
				continue
			}
			losing := *sibling.Action
			if losing.Task.Description == winning.Task.Description {
				continue
			}
			pairs = append(pairs, schemas.DPOPair{
				State: schemas.DPOState{
					Objective:      cur.State.Objective,
					WebText:        llmutil.Truncate(cur.State.WebText, dpoWebTextLimit),
					CompletedTasks: cur.State.CompletedTasks,
				},
				Winning: schemas.DPOAction{
					Task:       winning.Task,
					Rank:       winning.Rank,
					Visits:     next.VisitCount,
					MeanReward: next.ValueEstimate,
				},
				Losing: schemas.DPOAction{
					Task:       losing.Task,
					Rank:       losing.Rank,
					Visits:     sibling.VisitCount,
					MeanReward: sibling.ValueEstimate,
				},
			})
		}
	}
	return pairs
}

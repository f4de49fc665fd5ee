package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wayfind-agent/wayfind/internal/observability"
	"github.com/wayfind-agent/wayfind/internal/search"
)

// newSearchCmd creates the `search` command, the main entry point: run a
// full tree search for one natural-language objective.
func newSearchCmd() *cobra.Command {
	var (
		iterations int
		depthLimit int
		headless   bool
		homepage   string
		outputDir  string
		taskID     string
	)

	searchCmd := &cobra.Command{
		Use:   "search <objective...>",
		Short: "Searches the web for a way to satisfy the given objective",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			// Flags override whatever the file and environment provided.
			if cmd.Flags().Changed("iterations") {
				cfg.Search.Iterations = iterations
			}
			if cmd.Flags().Changed("depth-limit") {
				cfg.Search.DepthLimit = depthLimit
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if cmd.Flags().Changed("homepage") {
				cfg.Browser.Homepage = homepage
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.Dir = outputDir
			}
			if cmd.Flags().Changed("task-id") {
				cfg.Output.TaskID = taskID
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			objective := strings.Join(args, " ")
			outcome, err := search.Run(ctx, cfg, objective, logger)
			if err != nil {
				return err
			}

			printOutcome(cmd, outcome)
			logger.Info("search finished",
				zap.String("task_id", outcome.TaskID),
				zap.Int("dpo_pairs", len(outcome.DPOPairs)),
				zap.Bool("objective_met", outcome.Result.TerminalState != nil))
			return nil
		},
	}

	searchCmd.Flags().IntVarP(&iterations, "iterations", "n", 10, "number of search iterations")
	searchCmd.Flags().IntVarP(&depthLimit, "depth-limit", "d", 6, "maximum tree depth")
	searchCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	searchCmd.Flags().StringVar(&homepage, "homepage", "", "homepage every iteration starts from")
	searchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for run artifacts")
	searchCmd.Flags().StringVar(&taskID, "task-id", "", "identifier for this run's artifacts")

	return searchCmd
}

func printOutcome(cmd *cobra.Command, outcome *search.Outcome) {
	result := outcome.Result
	out := cmd.OutOrStdout()

	if result.TerminalState == nil {
		fmt.Fprintln(out, "No trajectory satisfied the objective.")
	} else {
		fmt.Fprintf(out, "Objective satisfied at %s\n", result.TerminalState.URL)
		if result.TerminalState.FinalAnswer != "" {
			fmt.Fprintf(out, "Answer: %s\n", result.TerminalState.FinalAnswer)
		}
		fmt.Fprintf(out, "Cumulative reward: %.3f over %d steps\n",
			result.CumReward, len(result.BestPath)-1)
	}
	if result.AggregatedAnswer != "" {
		fmt.Fprintf(out, "Aggregated answer: %s\n", result.AggregatedAnswer)
	}
	fmt.Fprintf(out, "Explored %d nodes; artifacts in %s\n", result.TreeSize, outcome.OutputDir)
}

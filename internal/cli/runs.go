package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/layersync/internal/store"
)

// RunsResult lists the journaled runs.
type RunsResult struct {
	Runs []store.Run `json:"runs"`
}

// NewRunsCommand creates the runs command and its subcommands.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs in the journal",
		Long: `List the runs recorded in the journal, oldest first.

Examples:
  layersync runs --db runs.db
  layersync runs --db runs.db --scenario reorder_target
  layersync runs rm run-2 --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, scenario, cmd)
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "only list runs of this scenario")

	cmd.AddCommand(&cobra.Command{
		Use:           "rm <run-id>",
		Short:         "Delete a run and its steps",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runRuns(opts *RootOptions, scenario string, cmd *cobra.Command) error {
	st, err := openExistingJournal(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if scenario != "" {
		filtered := make([]store.Run, 0, len(runs))
		for _, r := range runs {
			if r.Scenario == scenario {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	if opts.Format == "json" {
		return newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(RunsResult{Runs: runs})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs.")
		return nil
	}
	for _, r := range runs {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %-12s %-24s %3d step(s)  %s\n", mark, r.ID, r.Scenario, r.StepCount, r.TraceHash)
	}
	return nil
}

func runRemove(opts *RootOptions, runID string, cmd *cobra.Command) error {
	st, err := openExistingJournal(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := st.ReadRun(ctx, runID); errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	} else if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if err := st.DeleteRun(ctx, runID); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete run", err)
	}
	opts.logger().Info("run deleted", "run_id", runID)

	if opts.Format == "json" {
		return newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(map[string]string{"deleted": runID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", runID)
	return nil
}

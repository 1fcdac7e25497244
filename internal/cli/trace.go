package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Layer  string // optional, filter to one layer id
	Verify bool
}

// TraceStep is one journaled sync step.
type TraceStep struct {
	Seq       int64  `json:"seq"`
	Direction string `json:"direction"`
	Op        string `json:"op"`
	LayerID   string `json:"layer_id,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
	Index     int    `json:"index"`
	Count     int    `json:"count,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      store.Run   `json:"run"`
	Steps    []TraceStep `json:"steps"`
	Stats    TraceStats  `json:"stats"`
	Verified *bool       `json:"verified,omitempty"`
}

// TraceStats counts steps per direction.
type TraceStats struct {
	Total         int `json:"total"`
	Lifecycle     int `json:"lifecycle"`
	TargetToModel int `json:"target_to_model"`
	ModelToTarget int `json:"model_to_target"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show the sync steps of a journaled run",
		Long: `Show the sync steps recorded for one run in the journal.

Steps are listed in the order the engine took them. With --layer only
the steps touching that layer are shown. With --verify the trace digest
is recomputed from the stored steps and compared with the recorded one.

Exit codes:
  0 - Trace shown (and verified, with --verify)
  1 - Trace digest mismatch
  2 - Command error (no journal, unknown run, etc.)

Examples:
  layersync trace run-3 --db runs.db
  layersync trace run-3 --db runs.db --layer roads
  layersync trace run-3 --db runs.db --verify --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "only show steps for this layer id")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute and check the trace digest")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	st, err := openExistingJournal(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var steps []ir.SyncStep
	if opts.Layer != "" {
		steps, err = st.ReadLayerSteps(ctx, runID, opts.Layer)
	} else {
		steps, err = st.ReadSteps(ctx, runID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	result := buildTraceResult(run, steps)
	if opts.Verify {
		ok, err := st.VerifyRun(ctx, runID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to verify run", err)
		}
		result.Verified = &ok
		opts.logger().Debug("run verified", "run_id", runID, "ok", ok)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTraceText(cmd, result)
	}

	if result.Verified != nil && !*result.Verified {
		return NewExitError(ExitFailure, fmt.Sprintf("trace digest mismatch for run %s", runID))
	}
	return nil
}

// openExistingJournal opens the configured journal for reading. Unlike
// store.Open it refuses to create a new file.
func openExistingJournal(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no journal configured (use --db or store.path)")
	}
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

func buildTraceResult(run store.Run, steps []ir.SyncStep) TraceResult {
	result := TraceResult{
		Run:   run,
		Steps: make([]TraceStep, 0, len(steps)),
	}
	for _, s := range steps {
		result.Steps = append(result.Steps, TraceStep{
			Seq:       s.Seq,
			Direction: string(s.Direction),
			Op:        string(s.Op),
			LayerID:   s.LayerID,
			RecordID:  s.RecordID,
			Index:     s.Index,
			Count:     s.Count,
		})
		switch s.Direction {
		case ir.DirLifecycle:
			result.Stats.Lifecycle++
		case ir.DirTargetToModel:
			result.Stats.TargetToModel++
		case ir.DirModelToTarget:
			result.Stats.ModelToTarget++
		}
	}
	result.Stats.Total = len(result.Steps)
	return result
}

func outputTraceText(cmd *cobra.Command, result TraceResult) {
	w := cmd.OutOrStdout()
	run := result.Run

	status := "passed"
	if !run.Passed {
		status = "failed"
	}
	fmt.Fprintf(w, "Run %s (%s, %s)\n", run.ID, run.Scenario, status)
	fmt.Fprintf(w, "Trace hash: %s\n", run.TraceHash)
	fmt.Fprintln(w)

	if len(result.Steps) == 0 {
		fmt.Fprintln(w, "No steps.")
	}
	for _, s := range result.Steps {
		fmt.Fprintf(w, "  [%d] %-15s %-8s", s.Seq, s.Direction, s.Op)
		if s.LayerID != "" {
			fmt.Fprintf(w, " layer=%s", s.LayerID)
		}
		if s.RecordID != "" {
			fmt.Fprintf(w, " record=%s", s.RecordID)
		}
		if s.Index >= 0 {
			fmt.Fprintf(w, " index=%d", s.Index)
		}
		if s.Count > 0 {
			fmt.Fprintf(w, " count=%d", s.Count)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Steps: %d (%d lifecycle, %d target->model, %d model->target)\n",
		result.Stats.Total, result.Stats.Lifecycle, result.Stats.TargetToModel, result.Stats.ModelToTarget)

	if result.Verified != nil {
		if *result.Verified {
			fmt.Fprintln(w, "✓ Trace digest verified")
		} else {
			fmt.Fprintln(w, "✗ Trace digest mismatch")
		}
	}
}

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/layersync/internal/config"
	"github.com/roach88/layersync/internal/harness"
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/model"
	"github.com/roach88/layersync/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // defaults to <scenario dir>/golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name      string   `json:"name"`
	Pass      bool     `json:"pass"`
	RunID     string   `json:"run_id,omitempty"`
	TraceHash string   `json:"trace_hash,omitempty"`
	Steps     int      `json:"steps"`
	Errors    []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>",
		Short: "Run sync scenarios",
		Long: `Run YAML sync scenarios against the engine.

Each scenario is run with fresh collections, then its assertions are
checked and its trace is compared with the golden file when one exists.
With --db every run and its sync steps are written to the journal.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, journal not writable, etc.)

Examples:
  layersync test ./scenarios
  layersync test ./scenarios --filter "reorder_*"
  layersync test ./scenarios --update
  layersync test ./scenarios --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default <scenario dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
	}

	files, err := harness.Discover(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	j, err := openJournal(opts.RootOptions)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(file, opts, cmd)
		if j != nil && sr.run != nil {
			id, err := j.record(cmd.Context(), sr.ScenarioResult, sr.run)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to write journal", err)
			}
			sr.RunID = id
		}
		result.Scenarios = append(result.Scenarios, sr.ScenarioResult)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(cmd, result)
}

func filterScenarios(files []string, filter string) ([]string, error) {
	if filter == "" {
		return files, nil
	}
	var out []string
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}

// scenarioRun pairs the reported result with the harness result, which is
// nil when the scenario could not be run at all.
type scenarioRun struct {
	ScenarioResult
	run *harness.Result
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(file string, opts *TestOptions, cmd *cobra.Command) scenarioRun {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	fail := func(name string, res *harness.Result, errs ...string) scenarioRun {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		sr := scenarioRun{ScenarioResult: ScenarioResult{Name: name, Errors: errs}, run: res}
		if res != nil {
			sr.TraceHash = res.TraceHash
			sr.Steps = len(res.Trace)
		}
		return sr
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail(filepath.Base(file), nil, fmt.Sprintf("load error: %v", err))
	}

	res, err := harness.Run(scenario, harness.WithLogger(opts.logger()))
	if err != nil {
		return fail(scenario.Name, nil, fmt.Sprintf("execution error: %v", err))
	}
	opts.logger().Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", res.Pass,
		"steps", len(res.Trace),
		"trace_hash", res.TraceHash,
	)

	goldenPath := goldenFilePath(file, scenario.Name, opts.GoldenDir)
	if opts.Update {
		if err := writeGolden(goldenPath, scenario.Name, res); err != nil {
			return fail(scenario.Name, res, fmt.Sprintf("golden update error: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", scenario.Name)
		}
	} else if _, err := os.Stat(goldenPath); err == nil {
		match, err := compareGolden(goldenPath, scenario.Name, res)
		if err != nil {
			return fail(scenario.Name, res, fmt.Sprintf("golden comparison error: %v", err))
		}
		if !match {
			res.AddError("trace does not match golden file (run with --update to regenerate)")
		}
	}

	if !res.Pass {
		return fail(scenario.Name, res, res.Errors...)
	}
	if text && !opts.Update {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return scenarioRun{
		ScenarioResult: ScenarioResult{
			Name:      scenario.Name,
			Pass:      true,
			TraceHash: res.TraceHash,
			Steps:     len(res.Trace),
		},
		run: res,
	}
}

// goldenFilePath returns the golden file of a scenario.
func goldenFilePath(scenarioFile, name, dir string) string {
	if dir == "" {
		dir = filepath.Join(filepath.Dir(scenarioFile), "golden")
	}
	return filepath.Join(dir, name+".golden")
}

func snapshotBytes(name string, res *harness.Result) ([]byte, error) {
	data, err := ir.MarshalCanonical(harness.Snapshot(name, res).Canonical())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return data, nil
}

// writeGolden writes the current snapshot as the golden file.
func writeGolden(path, name string, res *harness.Result) error {
	data, err := snapshotBytes(name, res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareGolden reports whether the snapshot matches the golden file byte
// for byte.
func compareGolden(path, name string, res *harness.Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := snapshotBytes(name, res)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// journal writes scenario runs to the SQLite store.
type journal struct {
	st  *store.Store
	ids model.IDGenerator
}

// openJournal opens the configured journal, or returns nil when none is set.
func openJournal(opts *RootOptions) (*journal, error) {
	if opts.Database == "" {
		return nil, nil
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}

	ids := model.IDGenerator(model.UUIDv7Generator{})
	if opts.Config == nil || opts.Config.IDs == config.IDsSequential {
		runs, err := st.ListRuns(context.Background())
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		ids = &runSequence{next: len(runs) + 1}
	}
	return &journal{st: st, ids: ids}, nil
}

func (j *journal) record(ctx context.Context, sr ScenarioResult, res *harness.Result) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	run, err := j.st.WriteRun(ctx, store.Run{
		ID:        j.ids.Generate(),
		Scenario:  sr.Name,
		TraceHash: res.TraceHash,
		Passed:    sr.Pass,
	}, res.Trace)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (j *journal) Close() error {
	return j.st.Close()
}

// runSequence hands out run-N ids continuing after the runs already in the
// journal.
type runSequence struct {
	next int
}

func (s *runSequence) Generate() string {
	id := fmt.Sprintf("run-%d", s.next)
	s.next++
	return id
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Response(resp); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

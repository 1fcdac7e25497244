package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/store"
)

func journalSteps() []ir.SyncStep {
	return []ir.SyncStep{
		{Seq: 1, Direction: ir.DirLifecycle, Op: ir.OpImport, Index: -1, Count: 2},
		{Seq: 2, Direction: ir.DirLifecycle, Op: ir.OpBind, Index: -1, Count: 2},
		{Seq: 3, Direction: ir.DirTargetToModel, Op: ir.OpInsert, LayerID: "a", RecordID: "rec-3", Index: 0},
		{Seq: 4, Direction: ir.DirModelToTarget, Op: ir.OpTitle, LayerID: "b", RecordID: "rec-1", Index: -1},
	}
}

// createJournal writes two runs and returns the database path. run-2 has a
// recorded hash that does not match its steps.
func createJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.WriteRun(ctx, store.Run{ID: "run-1", Scenario: "demo", Passed: true}, journalSteps())
	require.NoError(t, err)
	_, err = st.WriteRun(ctx, store.Run{ID: "run-2", Scenario: "tampered", TraceHash: "not-a-digest"}, journalSteps()[:2])
	require.NoError(t, err)
	return dbPath
}

func TestTraceMissingRunID(t *testing.T) {
	_, _, err := executeRoot(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTraceNoJournal(t *testing.T) {
	_, _, err := executeRoot(t, "trace", "run-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal configured")
}

func TestTraceNonExistentJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")
	_, _, err := executeRoot(t, "--db", dbPath, "trace", "run-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
	assert.NoFileExists(t, dbPath)
}

func TestTraceUnknownRun(t *testing.T) {
	_, _, err := executeRoot(t, "--db", createJournal(t), "trace", "run-9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: run-9")
}

func TestTraceText(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "trace", "run-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Run run-1 (demo, passed)")
	assert.Contains(t, out, "[1] lifecycle       import   count=2")
	assert.Contains(t, out, "[3] target_to_model insert   layer=a record=rec-3 index=0")
	assert.Contains(t, out, "[4] model_to_target title    layer=b record=rec-1\n")
	assert.Contains(t, out, "Steps: 4 (2 lifecycle, 1 target->model, 1 model->target)")
	assert.NotContains(t, out, "digest")
}

func TestTraceJSON(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "--format", "json", "trace", "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	assert.Equal(t, 4, resp.Data.Run.StepCount)
	require.Len(t, resp.Data.Steps, 4)
	assert.Equal(t, "insert", resp.Data.Steps[2].Op)
	assert.Equal(t, TraceStats{Total: 4, Lifecycle: 2, TargetToModel: 1, ModelToTarget: 1}, resp.Data.Stats)
	assert.Nil(t, resp.Data.Verified)
}

func TestTraceLayerFilter(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "--format", "json", "trace", "run-1", "--layer", "a")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Steps, 1)
	assert.Equal(t, "a", resp.Data.Steps[0].LayerID)
	assert.Equal(t, int64(3), resp.Data.Steps[0].Seq)
}

func TestTraceVerify(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "trace", "run-1", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Trace digest verified")
}

func TestTraceVerifyMismatch(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "trace", "run-2", "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "trace digest mismatch for run run-2")
	assert.Contains(t, out, "Run run-2 (tampered, failed)")
	assert.Contains(t, out, "✗ Trace digest mismatch")
}

func TestTraceVerifyMismatchJSON(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "--format", "json", "trace", "run-2", "--verify")
	require.Error(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Verified)
	assert.False(t, *resp.Data.Verified)
}

func TestRunsList(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ run-1")
	assert.Contains(t, out, "✗ run-2")
	assert.Contains(t, out, "not-a-digest")
}

func TestRunsListJSONWithFilter(t *testing.T) {
	out, _, err := executeRoot(t, "--db", createJournal(t), "--format", "json", "runs", "--scenario", "demo")
	require.NoError(t, err)

	var resp struct {
		Data RunsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "run-1", resp.Data.Runs[0].ID)
	assert.Equal(t, int64(1), resp.Data.Runs[0].Seq)
}

func TestRunsListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := executeRoot(t, "--db", dbPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs.")
}

func TestRunsRemove(t *testing.T) {
	dbPath := createJournal(t)

	out, _, err := executeRoot(t, "--db", dbPath, "runs", "rm", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run-1")

	_, _, err = executeRoot(t, "--db", dbPath, "trace", "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	_, _, err = executeRoot(t, "--db", dbPath, "runs", "rm", "run-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBuildTraceResultEmpty(t *testing.T) {
	result := buildTraceResult(store.Run{ID: "r"}, nil)
	assert.NotNil(t, result.Steps)
	assert.Equal(t, TraceStats{}, result.Stats)
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/layersync/internal/ir"
)

// WriteRun stores a run and its steps in one transaction.
//
// The journal seq, step count and versions are filled in here; TraceHash is
// computed from steps when empty. Writing a run ID that already exists is a
// no-op (ON CONFLICT DO NOTHING). Returns the run as stored.
func (s *Store) WriteRun(ctx context.Context, run Run, steps []ir.SyncStep) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("write run: empty id")
	}
	if run.TraceHash == "" {
		hash, err := ir.TraceDigest(steps)
		if err != nil {
			return Run{}, fmt.Errorf("write run: %w", err)
		}
		run.TraceHash = hash
	}
	run.StepCount = len(steps)
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.TraceVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, trace_hash, step_count, passed, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Scenario,
		run.TraceHash,
		run.StepCount,
		boolToInt(run.Passed),
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already journaled; keep the stored copy.
		return s.readRunTx(ctx, tx, run.ID)
	}

	for _, step := range steps {
		canonical, err := marshalStep(step)
		if err != nil {
			return Run{}, fmt.Errorf("write run %s: step %d: %w", run.ID, step.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sync_steps
			(run_id, seq, direction, op, layer_id, record_id, idx, count, canonical)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`,
			run.ID,
			step.Seq,
			string(step.Direction),
			string(step.Op),
			step.LayerID,
			step.RecordID,
			step.Index,
			step.Count,
			canonical,
		)
		if err != nil {
			return Run{}, fmt.Errorf("write run %s: step %d: %w", run.ID, step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return run, nil
}

// DeleteRun removes a run and its steps. Deleting a missing run is a no-op.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

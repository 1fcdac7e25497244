package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/layersync/internal/ir"
)

const runColumns = `id, seq, scenario, trace_hash, step_count, passed, engine_version, ir_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var passed int
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Scenario,
		&run.TraceHash,
		&run.StepCount,
		&passed,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		return Run{}, err
	}
	run.Passed = passed == 1
	return run, nil
}

// ReadRun returns the run with the given ID, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

func (s *Store) readRunTx(ctx context.Context, tx *sql.Tx, id string) (Run, error) {
	run, err := scanRun(tx.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run in journal order.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the steps of a run ordered by seq.
// Returns an empty slice (not nil) for runs without steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]ir.SyncStep, error) {
	return s.querySteps(ctx, `
		SELECT seq, direction, op, layer_id, record_id, idx, count
		FROM sync_steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadLayerSteps returns the steps of a run touching one layer, ordered by seq.
func (s *Store) ReadLayerSteps(ctx context.Context, runID, layerID string) ([]ir.SyncStep, error) {
	return s.querySteps(ctx, `
		SELECT seq, direction, op, layer_id, record_id, idx, count
		FROM sync_steps
		WHERE run_id = ? AND layer_id = ?
		ORDER BY seq ASC
	`, runID, layerID)
}

func (s *Store) querySteps(ctx context.Context, query string, args ...any) ([]ir.SyncStep, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []ir.SyncStep{}
	for rows.Next() {
		var step ir.SyncStep
		var dir, op string
		if err := rows.Scan(&step.Seq, &dir, &op, &step.LayerID, &step.RecordID, &step.Index, &step.Count); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Direction = ir.Direction(dir)
		step.Op = ir.Op(op)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// VerifyRun recomputes the trace digest of a stored run from its canonical
// step column and reports whether it matches the stored trace_hash.
func (s *Store) VerifyRun(ctx context.Context, id string) (bool, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT canonical FROM sync_steps WHERE run_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return false, fmt.Errorf("verify run %s: %w", id, err)
	}
	defer rows.Close()

	var steps []ir.SyncStep
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return false, fmt.Errorf("verify run %s: %w", id, err)
		}
		step, err := unmarshalStep(data)
		if err != nil {
			return false, fmt.Errorf("verify run %s: %w", id, err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("verify run %s: %w", id, err)
	}

	hash, err := ir.TraceDigest(steps)
	if err != nil {
		return false, fmt.Errorf("verify run %s: %w", id, err)
	}
	return hash == run.TraceHash, nil
}

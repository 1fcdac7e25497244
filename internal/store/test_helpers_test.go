package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/layersync/internal/ir"
)

// createTestStore opens a journal in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleSteps is a bind followed by a target insert and a model title edit.
func sampleSteps() []ir.SyncStep {
	return []ir.SyncStep{
		{Seq: 1, Direction: ir.DirLifecycle, Op: ir.OpImport, Index: -1, Count: 2},
		{Seq: 2, Direction: ir.DirLifecycle, Op: ir.OpBind, Index: -1, Count: 2},
		{Seq: 3, Direction: ir.DirTargetToModel, Op: ir.OpInsert, LayerID: "a", RecordID: "rec-3", Index: 0},
		{Seq: 4, Direction: ir.DirModelToTarget, Op: ir.OpTitle, LayerID: "b", RecordID: "rec-1", Index: -1},
	}
}

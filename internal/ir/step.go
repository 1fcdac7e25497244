package ir

// Direction identifies which propagator produced a SyncStep.
type Direction string

const (
	// DirTargetToModel marks steps replayed from the layer collection onto the store.
	DirTargetToModel Direction = "target_to_model"

	// DirModelToTarget marks steps replayed from the store onto the layer collection.
	DirModelToTarget Direction = "model_to_target"

	// DirLifecycle marks bind and unbind steps.
	DirLifecycle Direction = "lifecycle"
)

// Op names the mutation a SyncStep applied to the opposite collection.
type Op string

const (
	OpInsert  Op = "insert"  // element or record inserted
	OpRemove  Op = "remove"  // element or record removed
	OpTitle   Op = "title"   // title mirrored
	OpChanged Op = "changed" // generic "entry changed" notification fired
	OpReload  Op = "reload"  // target rebuilt from a store load
	OpClear   Op = "clear"   // target cleared
	OpReplace Op = "replace" // record swapped in a storage slot
	OpImport  Op = "import"  // records imported while binding
	OpBind    Op = "bind"
	OpUnbind  Op = "unbind"
)

// SyncStep is one mutation the engine propagated to the opposite collection.
//
// Seq is a per-engine logical counter. Index is -1 when the step has no
// position (title, changed, clear, lifecycle).
type SyncStep struct {
	Seq       int64     `json:"seq"`
	Direction Direction `json:"direction"`
	Op        Op        `json:"op"`
	LayerID   string    `json:"layer_id,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	Index     int       `json:"index"`
	Count     int       `json:"count,omitempty"`
}

// Canonical returns the step as an IRObject suitable for MarshalCanonical.
// Empty identifiers and zero counts are omitted so golden traces stay small.
func (s SyncStep) Canonical() IRObject {
	obj := IRObject{
		"seq":       IRInt(s.Seq),
		"direction": IRString(s.Direction),
		"op":        IRString(s.Op),
		"index":     IRInt(s.Index),
	}
	if s.LayerID != "" {
		obj["layer_id"] = IRString(s.LayerID)
	}
	if s.RecordID != "" {
		obj["record_id"] = IRString(s.RecordID)
	}
	if s.Count != 0 {
		obj["count"] = IRInt(s.Count)
	}
	return obj
}

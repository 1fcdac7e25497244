package model

// UpdateOp distinguishes the kinds of update notification.
type UpdateOp string

const (
	// OpEdit marks a field edit. The only kind mirrored onto the target.
	OpEdit UpdateOp = "edit"

	// OpCommit marks committed changes.
	OpCommit UpdateOp = "commit"

	// OpReject marks rejected changes.
	OpReject UpdateOp = "reject"
)

// LoadEvent is emitted after a load. On failure Records is empty and the
// store is unchanged. Additive loads appended to the existing records;
// other loads replaced them.
type LoadEvent struct {
	Records  []*Record
	Success  bool
	Additive bool
	Err      error
}

// ClearEvent is emitted after every record was removed at once.
type ClearEvent struct {
	Records []*Record
}

// AddEvent is emitted after Records were inserted starting at Index.
type AddEvent struct {
	Records []*Record
	Index   int
}

// RemoveEvent is emitted after Record was removed from Index.
type RemoveEvent struct {
	Record *Record
	Index  int
}

// UpdateEvent is emitted after a record changed.
type UpdateEvent struct {
	Record   *Record
	Op       UpdateOp
	Modified []string
}

// ReplaceEvent is emitted by Entries after New took the slot of Old.
type ReplaceEvent struct {
	Key   string
	Old   *Record
	New   *Record
	Index int
}

// DestroyEvent is emitted once, before a store releases its listeners.
type DestroyEvent struct{}

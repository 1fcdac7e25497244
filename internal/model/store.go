package model

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/layersync/internal/event"
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
)

var (
	// ErrNilRecord is returned when a nil record is added.
	ErrNilRecord = errors.New("nil record")

	// ErrDuplicateID is returned when a record ID is already in use.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrDuplicateLayer is returned when a layer already backs another record.
	ErrDuplicateLayer = errors.New("layer already backs a record")

	// ErrNotFound is returned when a record is not in the store.
	ErrNotFound = errors.New("record not in store")

	// ErrIndexOutOfRange is returned for positions outside the store.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrReadOnlyField is returned when Set targets the record ID.
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrDestroyed is returned by mutations on a destroyed store.
	ErrDestroyed = errors.New("store destroyed")
)

// Store is the model collection: records describing layers in order.
//
// Not safe for concurrent use.
type Store struct {
	entries *Entries
	reader  Reader
	logger  *slog.Logger

	loaded    event.Emitter[LoadEvent]
	cleared   event.Emitter[ClearEvent]
	added     event.Emitter[AddEvent]
	removed   event.Emitter[RemoveEvent]
	updated   event.Emitter[UpdateEvent]
	destroyed event.Emitter[DestroyEvent]

	isDestroyed bool
}

// Option configures a Store.
type Option func(*Store)

// WithReader sets the reader used by Read and LoadLayers.
func WithReader(r Reader) Option {
	return func(s *Store) {
		s.reader = r
	}
}

// WithIDGenerator makes the store read layers with a LayerReader using ids.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Store) {
		s.reader = NewLayerReader(ids)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates an empty store. Without options records get UUIDv7 IDs.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:   newEntries(),
		reader:    NewLayerReader(UUIDv7Generator{}),
		logger:    slog.Default(),
		loaded:    event.Emitter[LoadEvent]{Name: "store.load"},
		cleared:   event.Emitter[ClearEvent]{Name: "store.clear"},
		added:     event.Emitter[AddEvent]{Name: "store.add"},
		removed:   event.Emitter[RemoveEvent]{Name: "store.remove"},
		updated:   event.Emitter[UpdateEvent]{Name: "store.update"},
		destroyed: event.Emitter[DestroyEvent]{Name: "store.destroy"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Storage returns the backing entry storage.
func (s *Store) Storage() Storage {
	return s.entries
}

// Len returns the number of records.
func (s *Store) Len() int {
	return s.entries.Len()
}

// At returns the record at i, or nil when out of range.
func (s *Store) At(i int) *Record {
	return s.entries.At(i)
}

// IndexOf returns the position of rec, or -1.
func (s *Store) IndexOf(rec *Record) int {
	return s.entries.IndexOf(rec)
}

// ByID returns the record with the given ID, or nil.
func (s *Store) ByID(id string) *Record {
	return s.entries.At(s.entries.IndexOfKey(id))
}

// FindIndexBy returns the position of the first record matching pred, or -1.
func (s *Store) FindIndexBy(pred func(*Record) bool) int {
	for i, rec := range s.entries.items {
		if pred(rec) {
			return i
		}
	}
	return -1
}

// Records returns a copy of the records in order.
func (s *Store) Records() []*Record {
	return s.entries.snapshot()
}

// Read converts elements into records without adding them.
func (s *Store) Read(elems ...layer.Element) ReadResult {
	return s.reader.Read(elems...)
}

// Insert inserts recs starting at index and emits one add notification.
func (s *Store) Insert(index int, recs ...*Record) error {
	if s.isDestroyed {
		return ErrDestroyed
	}
	if index < 0 || index > s.entries.Len() {
		return fmt.Errorf("insert at %d (len %d): %w", index, s.entries.Len(), ErrIndexOutOfRange)
	}
	if len(recs) == 0 {
		return nil
	}
	if err := s.validate(recs, nil); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	s.entries.insert(index, recs...)
	s.added.Emit(AddEvent{Records: recs, Index: index})
	return nil
}

// Add appends recs.
func (s *Store) Add(recs ...*Record) error {
	return s.Insert(s.entries.Len(), recs...)
}

// RemoveAt removes and returns the record at index.
func (s *Store) RemoveAt(index int) (*Record, error) {
	if s.isDestroyed {
		return nil, ErrDestroyed
	}
	if index < 0 || index >= s.entries.Len() {
		return nil, fmt.Errorf("remove at %d (len %d): %w", index, s.entries.Len(), ErrIndexOutOfRange)
	}
	rec := s.entries.removeAt(index)
	s.removed.Emit(RemoveEvent{Record: rec, Index: index})
	return rec, nil
}

// Remove removes rec and reports whether it was present.
func (s *Store) Remove(rec *Record) bool {
	i := s.entries.IndexOf(rec)
	if i < 0 {
		return false
	}
	_, err := s.RemoveAt(i)
	return err == nil
}

// RemoveAll removes every record and emits a single clear notification.
func (s *Store) RemoveAll() {
	if s.isDestroyed {
		return
	}
	old := s.entries.clear()
	s.cleared.Emit(ClearEvent{Records: old})
}

// Move relocates the record at from so that it ends up at to. Observers see
// a remove followed by an add.
func (s *Store) Move(from, to int) error {
	if to < 0 || to >= s.entries.Len() {
		return fmt.Errorf("move to %d (len %d): %w", to, s.entries.Len(), ErrIndexOutOfRange)
	}
	rec, err := s.RemoveAt(from)
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	return s.Insert(to, rec)
}

// Set edits one field of rec and emits an edit update when the value
// changed. "title" must be a string; "id" is read-only.
func (s *Store) Set(rec *Record, key string, value ir.IRValue) error {
	if s.isDestroyed {
		return ErrDestroyed
	}
	if s.entries.IndexOf(rec) < 0 {
		return ErrNotFound
	}
	if key == ir.PropID {
		return fmt.Errorf("set %q: %w", key, ErrReadOnlyField)
	}
	if value == nil {
		value = ir.IRNull{}
	}
	if ir.Equal(rec.Get(key), value) {
		return nil
	}

	switch key {
	case ir.PropTitle:
		title, ok := value.(ir.IRString)
		if !ok {
			return fmt.Errorf("set title to %T: %w", value, ErrInvalidTitle)
		}
		rec.Title = string(title)
	default:
		if rec.Fields == nil {
			rec.Fields = ir.IRObject{}
		}
		rec.Fields[key] = value
	}

	s.updated.Emit(UpdateEvent{Record: rec, Op: OpEdit, Modified: []string{key}})
	return nil
}

// Commit emits a commit update for rec.
func (s *Store) Commit(rec *Record) error {
	if s.entries.IndexOf(rec) < 0 {
		return ErrNotFound
	}
	s.updated.Emit(UpdateEvent{Record: rec, Op: OpCommit})
	return nil
}

// FireChanged emits the generic "record changed" notification for rec
// without touching it. Records not in the store are ignored.
func (s *Store) FireChanged(rec *Record, modified ...string) {
	if s.entries.IndexOf(rec) < 0 {
		return
	}
	s.updated.Emit(UpdateEvent{Record: rec, Op: OpEdit, Modified: modified})
}

// Replace swaps next into the slot held by old. The storage emits replace;
// the store itself emits nothing.
func (s *Store) Replace(old, next *Record) error {
	if s.isDestroyed {
		return ErrDestroyed
	}
	i := s.entries.IndexOf(old)
	if i < 0 {
		return ErrNotFound
	}
	if err := s.validate([]*Record{next}, old); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	s.entries.replace(i, next)
	return nil
}

// Load adds recs and emits one load notification. A non-additive load
// drops the current records first without emitting remove or clear.
// Invalid input emits a failed load and leaves the store unchanged.
func (s *Store) Load(recs []*Record, additive bool) error {
	if s.isDestroyed {
		return ErrDestroyed
	}

	if err := s.validateLoad(recs, additive); err != nil {
		s.loaded.Emit(LoadEvent{Additive: additive, Err: err})
		return fmt.Errorf("load: %w", err)
	}

	if !additive {
		s.entries.clear()
	}
	s.entries.insert(s.entries.Len(), recs...)
	s.loaded.Emit(LoadEvent{Records: recs, Success: true, Additive: additive})
	return nil
}

// LoadLayers reads elems and loads the resulting records. A failed read
// emits a failed load and leaves the store unchanged.
func (s *Store) LoadLayers(elems []layer.Element, additive bool) error {
	if s.isDestroyed {
		return ErrDestroyed
	}
	res := s.reader.Read(elems...)
	if !res.Success {
		s.logger.Warn("layer import failed",
			"total", res.Total,
			"error", res.Err,
		)
		s.loaded.Emit(LoadEvent{Additive: additive, Err: res.Err})
		return fmt.Errorf("load layers: %w", res.Err)
	}
	return s.Load(res.Records, additive)
}

// Destroy emits destroy and then detaches every listener. Later calls are
// no-ops and later mutations fail with ErrDestroyed.
func (s *Store) Destroy() {
	if s.isDestroyed {
		return
	}
	s.isDestroyed = true
	s.destroyed.Emit(DestroyEvent{})

	s.loaded.Clear()
	s.cleared.Clear()
	s.added.Clear()
	s.removed.Clear()
	s.updated.Clear()
	s.destroyed.Clear()
	s.entries.replaced.Clear()
}

// Destroyed reports whether Destroy was called.
func (s *Store) Destroyed() bool {
	return s.isDestroyed
}

// OnLoad registers a load listener.
func (s *Store) OnLoad(h event.Handler[LoadEvent]) event.Key { return s.loaded.On(h) }

// OnClear registers a clear listener.
func (s *Store) OnClear(h event.Handler[ClearEvent]) event.Key { return s.cleared.On(h) }

// OnAdd registers an add listener.
func (s *Store) OnAdd(h event.Handler[AddEvent]) event.Key { return s.added.On(h) }

// OnRemove registers a remove listener.
func (s *Store) OnRemove(h event.Handler[RemoveEvent]) event.Key { return s.removed.On(h) }

// OnUpdate registers an update listener.
func (s *Store) OnUpdate(h event.Handler[UpdateEvent]) event.Key { return s.updated.On(h) }

// OnDestroy registers a destroy listener.
func (s *Store) OnDestroy(h event.Handler[DestroyEvent]) event.Key { return s.destroyed.On(h) }

// Unlisten removes a listener registered with any On method of the store.
func (s *Store) Unlisten(key event.Key) bool {
	return s.loaded.Off(key) || s.cleared.Off(key) || s.added.Off(key) ||
		s.removed.Off(key) || s.updated.Off(key) || s.destroyed.Off(key)
}

// ListenerCount returns the number of store listeners, excluding the
// storage's replace listeners.
func (s *Store) ListenerCount() int {
	return s.loaded.Len() + s.cleared.Len() + s.added.Len() +
		s.removed.Len() + s.updated.Len() + s.destroyed.Len()
}

// validate checks recs for insertion. except is a record about to leave the
// store, whose ID and layer may be reused.
func (s *Store) validate(recs []*Record, except *Record) error {
	ids := make(map[string]bool, len(recs))
	layers := make(map[layer.Element]bool, len(recs))
	for i, rec := range recs {
		if rec == nil {
			return fmt.Errorf("record %d: %w", i, ErrNilRecord)
		}
		if rec.Layer == nil {
			return fmt.Errorf("record %q: %w", rec.ID, ErrNilLayer)
		}
		if ids[rec.ID] {
			return fmt.Errorf("record %q: %w", rec.ID, ErrDuplicateID)
		}
		ids[rec.ID] = true
		if j := s.entries.IndexOfKey(rec.ID); j >= 0 && s.entries.At(j) != except {
			return fmt.Errorf("record %q: %w", rec.ID, ErrDuplicateID)
		}
		if layers[rec.Layer] {
			return fmt.Errorf("record %q: layer %q: %w", rec.ID, rec.LayerID(), ErrDuplicateLayer)
		}
		layers[rec.Layer] = true
		if other := s.byLayer(rec.Layer); other != nil && other != except {
			return fmt.Errorf("record %q: layer %q backs %q: %w", rec.ID, rec.LayerID(), other.ID, ErrDuplicateLayer)
		}
	}
	return nil
}

// byLayer returns the record backed by el, or nil.
func (s *Store) byLayer(el layer.Element) *Record {
	for i := 0; i < s.entries.Len(); i++ {
		if rec := s.entries.At(i); rec.Layer == el {
			return rec
		}
	}
	return nil
}

func (s *Store) validateLoad(recs []*Record, additive bool) error {
	if additive {
		return s.validate(recs, nil)
	}
	// The current records are dropped, so only the batch must be unique.
	fresh := &Store{entries: newEntries()}
	return fresh.validate(recs, nil)
}

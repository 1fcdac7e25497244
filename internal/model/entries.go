package model

import (
	"slices"

	"github.com/roach88/layersync/internal/event"
)

// Storage is the notification surface of the store's backing entries.
type Storage interface {
	OnReplace(h event.Handler[ReplaceEvent]) event.Key
	Unlisten(key event.Key) bool
}

// Entries is the ordered backing storage of a Store. Only Store mutates it.
type Entries struct {
	items    []*Record
	replaced event.Emitter[ReplaceEvent]
}

func newEntries() *Entries {
	return &Entries{replaced: event.Emitter[ReplaceEvent]{Name: "entries.replace"}}
}

// Len returns the number of records.
func (e *Entries) Len() int {
	return len(e.items)
}

// At returns the record at i, or nil when out of range.
func (e *Entries) At(i int) *Record {
	if i < 0 || i >= len(e.items) {
		return nil
	}
	return e.items[i]
}

// IndexOf returns the position of rec, or -1.
func (e *Entries) IndexOf(rec *Record) int {
	return slices.Index(e.items, rec)
}

// IndexOfKey returns the position of the record with the given ID, or -1.
func (e *Entries) IndexOfKey(id string) int {
	return slices.IndexFunc(e.items, func(r *Record) bool { return r.ID == id })
}

// OnReplace registers a listener for replace notifications.
func (e *Entries) OnReplace(h event.Handler[ReplaceEvent]) event.Key {
	return e.replaced.On(h)
}

// Unlisten removes a listener registered with OnReplace.
func (e *Entries) Unlisten(key event.Key) bool {
	return e.replaced.Off(key)
}

// ListenerCount returns the number of replace listeners.
func (e *Entries) ListenerCount() int {
	return e.replaced.Len()
}

func (e *Entries) insert(i int, recs ...*Record) {
	e.items = slices.Insert(e.items, i, recs...)
}

func (e *Entries) removeAt(i int) *Record {
	rec := e.items[i]
	e.items = slices.Delete(e.items, i, i+1)
	return rec
}

func (e *Entries) clear() []*Record {
	old := e.items
	e.items = nil
	return old
}

func (e *Entries) replace(i int, rec *Record) {
	old := e.items[i]
	e.items[i] = rec
	e.replaced.Emit(ReplaceEvent{Key: old.ID, Old: old, New: rec, Index: i})
}

func (e *Entries) snapshot() []*Record {
	return slices.Clone(e.items)
}

package engine

import (
	"github.com/roach88/layersync/internal/event"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

// Target is the ordered layer container the engine mirrors the model onto.
// Implemented by *layer.Collection.
type Target interface {
	OnAdd(h event.Handler[layer.CollectionEvent]) event.Key
	OnRemove(h event.Handler[layer.CollectionEvent]) event.Key
	Unlisten(key event.Key) bool

	ForEach(fn func(e layer.Element, index int))
	Item(i int) layer.Element
	Len() int
	IndexOf(e layer.Element) int

	Push(e layer.Element) error
	InsertAt(index int, e layer.Element) error
	Remove(e layer.Element) bool
	Clear()
	Extend(elems ...layer.Element) error
}

// Model is the record collection the engine mirrors the target onto.
// Implemented by *model.Store.
type Model interface {
	OnLoad(h event.Handler[model.LoadEvent]) event.Key
	OnClear(h event.Handler[model.ClearEvent]) event.Key
	OnAdd(h event.Handler[model.AddEvent]) event.Key
	OnRemove(h event.Handler[model.RemoveEvent]) event.Key
	OnUpdate(h event.Handler[model.UpdateEvent]) event.Key
	OnDestroy(h event.Handler[model.DestroyEvent]) event.Key
	Unlisten(key event.Key) bool

	// Storage exposes the replace notification of the backing entries.
	Storage() model.Storage

	Read(elems ...layer.Element) model.ReadResult
	Load(recs []*model.Record, additive bool) error
	Insert(index int, recs ...*model.Record) error
	Remove(rec *model.Record) bool
	FireChanged(rec *model.Record, modified ...string)

	FindIndexBy(pred func(*model.Record) bool) int
	At(i int) *model.Record
	Len() int
	IndexOf(rec *model.Record) int
}

var (
	_ Target = (*layer.Collection)(nil)
	_ Model  = (*model.Store)(nil)
)

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

// fixture is a store and a layer collection bound by one engine.
type fixture struct {
	store  *model.Store
	target *layer.Collection
	engine *Engine
	steps  []ir.SyncStep
	layers map[string]*layer.Layer
}

func newLayer(id string) *layer.Layer {
	return layer.FromSpec(ir.LayerSpec{ID: id, Title: "Title " + id})
}

// newFixture builds a target holding one layer per id and an unbound engine.
func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()

	f := &fixture{layers: make(map[string]*layer.Layer)}
	elems := make([]layer.Element, 0, len(ids))
	for _, id := range ids {
		l := newLayer(id)
		f.layers[id] = l
		elems = append(elems, l)
	}

	target, err := layer.NewCollection(elems...)
	require.NoError(t, err)
	f.target = target
	f.store = model.NewStore(model.WithIDGenerator(model.NewSequentialGenerator("rec")))
	f.engine = New(f.store, WithObserver(func(s ir.SyncStep) {
		f.steps = append(f.steps, s)
	}))
	return f
}

// newBoundFixture is newFixture followed by a successful Bind.
func newBoundFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	f := newFixture(t, ids...)
	require.NoError(t, f.engine.Bind(f.target))
	return f
}

// layer returns a layer of the fixture, creating a detached one on demand.
func (f *fixture) layer(id string) *layer.Layer {
	if l, ok := f.layers[id]; ok {
		return l
	}
	l := newLayer(id)
	f.layers[id] = l
	return l
}

func (f *fixture) record(t *testing.T, id string) *model.Record {
	t.Helper()
	rec, ok := f.engine.ByLayer(f.layer(id))
	require.True(t, ok, "layer %q has no record", id)
	return rec
}

func (f *fixture) targetIDs() []string {
	out := []string{}
	f.target.ForEach(func(e layer.Element, _ int) {
		out = append(out, layer.IDOf(e))
	})
	return out
}

func (f *fixture) modelIDs() []string {
	out := []string{}
	for _, rec := range f.store.Records() {
		out = append(out, rec.LayerID())
	}
	return out
}

func (f *fixture) lastStep(t *testing.T) ir.SyncStep {
	t.Helper()
	require.NotEmpty(t, f.steps)
	return f.steps[len(f.steps)-1]
}

// requireInSync checks the order invariant and the 1:1 pairing.
func (f *fixture) requireInSync(t *testing.T) {
	t.Helper()
	require.Equal(t, f.target.Len(), f.store.Len(), "collection sizes differ")
	for i := 0; i < f.target.Len(); i++ {
		el := f.target.Item(i)
		rec := f.store.At(i)
		require.True(t, el == rec.Layer, "position %d: record %s backs %s, target holds %s",
			i, rec.ID, rec.LayerID(), layer.IDOf(el))

		bound, ok := f.engine.ByLayer(el)
		require.True(t, ok, "position %d: layer %s not indexed", i, layer.IDOf(el))
		require.Same(t, rec, bound)

		back, ok := f.engine.Layer(rec)
		require.True(t, ok)
		require.True(t, back == el)
	}
}

// counters counts raw notifications on both collections.
type counters struct {
	targetAdds, targetRemoves int
	modelAdds, modelRemoves   int
	modelUpdates              int
	modelClears, modelLoads   int
}

func (f *fixture) count() *counters {
	c := &counters{}
	f.target.OnAdd(func(layer.CollectionEvent) { c.targetAdds++ })
	f.target.OnRemove(func(layer.CollectionEvent) { c.targetRemoves++ })
	f.store.OnAdd(func(model.AddEvent) { c.modelAdds++ })
	f.store.OnRemove(func(model.RemoveEvent) { c.modelRemoves++ })
	f.store.OnUpdate(func(model.UpdateEvent) { c.modelUpdates++ })
	f.store.OnClear(func(model.ClearEvent) { c.modelClears++ })
	f.store.OnLoad(func(model.LoadEvent) { c.modelLoads++ })
	return c
}

// failingReader rejects every read.
type failingReader struct {
	err error
}

func (r failingReader) Read(elems ...layer.Element) model.ReadResult {
	return model.ReadResult{Total: len(elems), Err: r.err}
}

package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
	"github.com/roach88/layersync/internal/testutil"
)

func TestBind_ImportsTargetInOrder(t *testing.T) {
	f := newBoundFixture(t, "a", "b", "c")

	assert.True(t, f.engine.Bound())
	assert.Equal(t, []string{"a", "b", "c"}, f.modelIDs())
	f.requireInSync(t)

	for i, id := range []string{"a", "b", "c"} {
		rec := f.store.At(i)
		assert.True(t, rec.Layer == layer.Element(f.layer(id)))
		assert.Equal(t, "Title "+id, rec.Title)
		assert.Equal(t, 1, f.layer(id).ListenerCount(), "layer %s should be watched", id)
	}

	require.Len(t, f.steps, 2)
	assert.Equal(t, ir.OpImport, f.steps[0].Op)
	assert.Equal(t, 3, f.steps[0].Count)
	assert.Equal(t, ir.OpBind, f.steps[1].Op)
}

func TestBind_RoundTripDoesNotDuplicate(t *testing.T) {
	f := newBoundFixture(t, "a", "b", "c")
	before := f.store.Records()

	f.engine.Unbind()
	require.NoError(t, f.engine.Bind(f.target))

	assert.Equal(t, before, f.store.Records(), "rebinding must reuse the existing records")
	f.requireInSync(t)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, f.layer(id).ListenerCount())
	}
}

func TestBind_AppendsToExistingRecords(t *testing.T) {
	f := newFixture(t, "b")
	existing := &model.Record{ID: "keep", Title: "kept", Layer: f.layer("a")}
	require.NoError(t, f.store.Add(existing))

	require.NoError(t, f.engine.Bind(f.target))

	assert.Equal(t, []string{"a", "b"}, f.modelIDs(), "import appends without clearing")
	assert.Same(t, existing, f.store.At(0))
}

func TestBind_SameTargetIsNoop(t *testing.T) {
	f := newBoundFixture(t, "a")

	bound := 0
	f.engine.OnBound(func(BindEvent) { bound++ })

	require.NoError(t, f.engine.Bind(f.target))
	assert.Equal(t, 0, bound)
	assert.Equal(t, 1, f.store.Len())
}

func TestBind_DifferentTargetFails(t *testing.T) {
	f := newBoundFixture(t, "a")

	other, err := layer.NewCollection(newLayer("x"))
	require.NoError(t, err)

	err = f.engine.Bind(other)
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.True(t, f.engine.Target() == Target(f.target), "first bind wins")
	assert.Equal(t, []string{"a"}, f.modelIDs())
}

func TestBind_NilTarget(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.engine.Bind(nil), ErrNilTarget)
	assert.False(t, f.engine.Bound())
}

func TestBind_ImportFailureLeavesStateUntouched(t *testing.T) {
	cause := errors.New("backend says no")
	l := newLayer("a")
	target, err := layer.NewCollection(l)
	require.NoError(t, err)
	store := model.NewStore(model.WithReader(failingReader{err: cause}))
	e := New(store)

	err = e.Bind(target)

	require.Error(t, err)
	assert.True(t, IsImportError(err))
	assert.ErrorIs(t, err, cause)
	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "1", se.Details["total"])

	assert.False(t, e.Bound())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, target.Len())
	assert.Equal(t, 0, target.ListenerCount())
	assert.Equal(t, 0, l.ListenerCount())
}

func TestBind_EmitsBound(t *testing.T) {
	f := newFixture(t, "a")

	var got []BindEvent
	f.engine.OnBound(func(ev BindEvent) { got = append(got, ev) })

	require.NoError(t, f.engine.Bind(f.target))
	require.Len(t, got, 1)
	assert.True(t, got[0].Target == Target(f.target))
}

func TestUnbind_Idempotent(t *testing.T) {
	f := newFixture(t, "a", "b")

	assert.NotPanics(t, f.engine.Unbind, "unbind before bind")

	require.NoError(t, f.engine.Bind(f.target))
	unbound := 0
	f.engine.OnUnbound(func(BindEvent) { unbound++ })

	f.engine.Unbind()
	f.engine.Unbind()

	assert.Equal(t, 1, unbound)
	assert.False(t, f.engine.Bound())
	assert.Nil(t, f.engine.Target())
	assert.Equal(t, 0, f.engine.ListenerCount())
}

func TestUnbind_LeavesNoActiveListeners(t *testing.T) {
	f := newBoundFixture(t, "a", "b")
	f.engine.Unbind()

	assert.Equal(t, 0, f.target.ListenerCount())
	assert.Equal(t, 1, f.store.ListenerCount(), "only the engine's destroy listener remains")
	assert.Equal(t, 0, f.layer("a").ListenerCount())
	assert.Equal(t, 0, f.layer("b").ListenerCount())

	// Direct mutation still works but no longer propagates.
	steps := len(f.steps)
	require.NoError(t, f.target.Push(newLayer("c")))
	f.layer("a").Set(ir.PropTitle, ir.IRString("renamed"))
	_, err := f.store.RemoveAt(0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, f.targetIDs())
	assert.Equal(t, []string{"b"}, f.modelIDs())
	assert.Len(t, f.steps, steps)
}

func TestUnbind_DetachesInReverseOrder(t *testing.T) {
	f := newBoundFixture(t, "a")

	var names []string
	for i := len(f.engine.subs.attached) - 1; i >= 0; i-- {
		names = append(names, f.engine.subs.attached[i].name)
	}
	assert.Equal(t, []string{
		"storage.replace", "model.update", "model.remove", "model.add",
		"model.clear", "model.load", "target.remove", "target.add",
	}, names)

	f.engine.Unbind()
	assert.Empty(t, f.engine.subs.attached)
}

func TestStoreDestroyUnbinds(t *testing.T) {
	f := newBoundFixture(t, "a")

	unbound := 0
	f.engine.OnUnbound(func(BindEvent) { unbound++ })

	f.store.Destroy()

	assert.Equal(t, 1, unbound)
	assert.False(t, f.engine.Bound())
	assert.Equal(t, 0, f.target.ListenerCount())
	assert.Equal(t, 0, f.layer("a").ListenerCount())
}

func TestStoreDestroyBlocksRebind(t *testing.T) {
	f := newBoundFixture(t, "a")
	f.store.Destroy()

	empty, err := layer.NewCollection()
	require.NoError(t, err)
	assert.ErrorIs(t, f.engine.Bind(empty), ErrDestroyed)
	assert.False(t, f.engine.Bound())
	assert.Equal(t, 0, empty.ListenerCount())

	f.engine.Destroy()
}

func TestDestroy(t *testing.T) {
	f := newBoundFixture(t, "a")

	f.engine.Destroy()
	f.engine.Destroy()

	assert.False(t, f.engine.Bound())
	assert.Equal(t, 0, f.store.ListenerCount())
	assert.ErrorIs(t, f.engine.Bind(f.target), ErrDestroyed)
}

func TestWithClock(t *testing.T) {
	clock := testutil.NewDeterministicClock()
	clock.Next()
	clock.Next()

	l := newLayer("a")
	target, err := layer.NewCollection(l)
	require.NoError(t, err)

	var steps []ir.SyncStep
	e := New(model.NewStore(), WithClock(clock), WithObserver(func(s ir.SyncStep) {
		steps = append(steps, s)
	}))
	require.NoError(t, e.Bind(target))

	require.Len(t, steps, 2)
	assert.Equal(t, int64(3), steps[0].Seq)
	assert.Equal(t, int64(4), steps[1].Seq)
}

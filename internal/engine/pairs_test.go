package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

func TestPairs_IdentityNotValue(t *testing.T) {
	p := newPairs()

	a := layer.FromSpec(ir.LayerSpec{ID: "dup", Title: "Dup"})
	b := layer.FromSpec(ir.LayerSpec{ID: "dup", Title: "Dup"})
	recA := &model.Record{ID: "1", Layer: a}
	p.put(recA)

	got, ok := p.record(a)
	require.True(t, ok)
	assert.Same(t, recA, got)

	_, ok = p.record(b)
	assert.False(t, ok, "an equal but distinct layer must miss")

	el, ok := p.layer(recA)
	require.True(t, ok)
	assert.True(t, el == layer.Element(a))
}

func TestPairs_PutReplacesStalePairs(t *testing.T) {
	p := newPairs()
	l := newLayer("a")

	first := &model.Record{ID: "1", Layer: l}
	second := &model.Record{ID: "2", Layer: l}
	p.put(first)
	p.put(second)

	got, _ := p.record(l)
	assert.Same(t, second, got)
	_, ok := p.layer(first)
	assert.False(t, ok, "the displaced record must not keep a reverse entry")
	assert.Equal(t, 1, p.len())
}

func TestPairs_DeleteRecord(t *testing.T) {
	p := newPairs()
	l := newLayer("a")
	rec := &model.Record{ID: "1", Layer: l}
	p.put(rec)

	p.deleteRecord(rec)
	p.deleteRecord(rec)

	_, ok := p.record(l)
	assert.False(t, ok)
	assert.Equal(t, 0, p.len())
}

func TestPairs_IgnoresNil(t *testing.T) {
	p := newPairs()
	p.put(nil)
	p.put(&model.Record{ID: "orphan"})
	assert.Equal(t, 0, p.len())
}

func TestPairs_Rebuild(t *testing.T) {
	s := model.NewStore()
	a := &model.Record{ID: "a", Layer: newLayer("a")}
	b := &model.Record{ID: "b", Layer: newLayer("b")}
	require.NoError(t, s.Add(a, b))

	p := newPairs()
	p.put(&model.Record{ID: "stale", Layer: newLayer("stale")})
	p.rebuild(s)

	assert.Equal(t, 2, p.len())
	got, ok := p.record(b.Layer)
	require.True(t, ok)
	assert.Same(t, b, got)
}

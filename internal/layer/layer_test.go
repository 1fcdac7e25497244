package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
)

func TestLayer_FromSpec(t *testing.T) {
	l := FromSpec(ir.LayerSpec{
		ID:    "roads",
		Title: "Roads",
		Props: ir.IRObject{"opacity": ir.IRInt(80)},
	})

	assert.Equal(t, "roads", l.ID())
	assert.Equal(t, "Roads", l.Title())
	assert.Equal(t, ir.IRInt(80), l.Get("opacity"))
	assert.Equal(t, ir.IRNull{}, l.Get("missing"))
}

func TestLayer_SetNotifies(t *testing.T) {
	l := New(ir.IRObject{"title": ir.IRString("Old")})

	var got []PropertyChange
	l.OnPropertyChange(func(pc PropertyChange) { got = append(got, pc) })

	l.Set("title", ir.IRString("New"))

	require.Len(t, got, 1)
	assert.Same(t, l, got[0].Target.(*Layer))
	assert.Equal(t, "title", got[0].Key)
	assert.Equal(t, ir.IRString("Old"), got[0].Old)
	assert.Equal(t, "New", l.Title())
}

func TestLayer_SetSameValueIsSilent(t *testing.T) {
	l := New(ir.IRObject{"title": ir.IRString("Same")})

	calls := 0
	l.OnPropertyChange(func(PropertyChange) { calls++ })

	l.Set("title", ir.IRString("Same"))
	l.Set("visible", nil)

	assert.Equal(t, 0, calls, "unchanged values and nil over unset must not notify")
}

func TestLayer_NewCopiesProps(t *testing.T) {
	props := ir.IRObject{"title": ir.IRString("A")}
	l := New(props)

	props["title"] = ir.IRString("mutated")
	assert.Equal(t, "A", l.Title())

	out := l.Properties()
	out["title"] = ir.IRString("mutated")
	assert.Equal(t, "A", l.Title())
}

func TestLayer_Unlisten(t *testing.T) {
	l := New(nil)

	calls := 0
	key := l.OnPropertyChange(func(PropertyChange) { calls++ })
	assert.Equal(t, 1, l.ListenerCount())

	require.True(t, l.Unlisten(key))
	assert.Equal(t, 0, l.ListenerCount())

	l.Set("title", ir.IRString("x"))
	assert.Equal(t, 0, calls)
}

func TestLayer_IdentityNotValue(t *testing.T) {
	a := FromSpec(ir.LayerSpec{ID: "same", Title: "Same"})
	b := FromSpec(ir.LayerSpec{ID: "same", Title: "Same"})

	var ea, eb Element = a, b
	assert.NotSame(t, a, b)
	assert.False(t, ea == eb, "elements compare by identity")
	assert.True(t, ir.Equal(a.Properties(), b.Properties()))
}

func TestIDOfTitleOf(t *testing.T) {
	l := FromSpec(ir.LayerSpec{ID: "x", Title: "X"})
	assert.Equal(t, "x", IDOf(l))
	assert.Equal(t, "X", TitleOf(l))
	assert.Equal(t, "", IDOf(nil))
	assert.Equal(t, "", TitleOf(nil))
}

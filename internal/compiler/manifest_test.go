package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layersync/internal/ir"
)

func TestCompileManifestBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		manifest: basemap: {
			layers: [
				{id: "osm", title: "OpenStreetMap"},
				{id: "roads", title: "Roads", props: {
					opacity: 80
					visible: true
					tags: ["transport", "vector"]
					source: {kind: "wms", url: null}
				}},
			]
		}
	`)
	require.NoError(t, v.Err())

	m, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.basemap")))
	require.NoError(t, err)

	assert.Equal(t, "basemap", m.Name)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, ir.LayerSpec{ID: "osm", Title: "OpenStreetMap"}, m.Layers[0])

	roads := m.Layers[1]
	assert.Equal(t, "roads", roads.ID)
	assert.Equal(t, ir.IRInt(80), roads.Props["opacity"])
	assert.Equal(t, ir.IRBool(true), roads.Props["visible"])
	assert.Equal(t, ir.IRArray{ir.IRString("transport"), ir.IRString("vector")}, roads.Props["tags"])
	assert.Equal(t, ir.IRObject{"kind": ir.IRString("wms"), "url": ir.IRNull{}}, roads.Props["source"])
}

func TestCompileManifestUsesUnification(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		#Layer: {id: string, title: *id | string}
		manifest: m: layers: [#Layer & {id: "a"}, #Layer & {id: "b", title: "Bee"}]
	`)
	require.NoError(t, v.Err())

	m, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.m")))
	require.NoError(t, err)

	require.Len(t, m.Layers, 2)
	assert.Equal(t, "a", m.Layers[0].Title, "default title is the id")
	assert.Equal(t, "Bee", m.Layers[1].Title)
}

func TestCompileManifestMissingLayers(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`manifest: empty: {}`)

	_, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.empty")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "layers", ce.Field)
}

func TestCompileManifestMissingID(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`manifest: m: layers: [{title: "no id"}]`)

	_, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.m")))

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "layers[0].id", ce.Field)
}

func TestCompileManifestRejectsFloats(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`manifest: m: layers: [{id: "a", props: {opacity: 0.5}}]`)

	_, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.m")))

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "layers[0].props.opacity", ce.Field)
	assert.Contains(t, ce.Message, "floats are not allowed")
}

func TestCompileManifestPropsMustBeStruct(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`manifest: m: layers: [{id: "a", props: "nope"}]`)

	_, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.m")))

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "layers[0].props", ce.Field)
}

func TestCompileManifestsKeepsDeclarationOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		manifest: zeta: layers: [{id: "z"}]
		manifest: alpha: layers: [{id: "a"}]
	`)

	ms, err := CompileManifests(v)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "zeta", ms[0].Name)
	assert.Equal(t, "alpha", ms[1].Name)
}

func TestCompileManifestsNone(t *testing.T) {
	ctx := cuecontext.New()
	ms, err := CompileManifests(ctx.CompileString(`other: 1`))
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestCompileSourceSyntaxErrorHasPosition(t *testing.T) {
	_, err := CompileSource([]byte("manifest: m: layers: [\n  {id: \n"), "broken.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "broken.cue")
}

func TestCompileErrorWithoutPosition(t *testing.T) {
	err := &CompileError{Field: "layers", Message: "layers is required"}
	assert.Equal(t, "layers: layers is required", err.Error())
}

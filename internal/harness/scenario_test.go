package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s := mustParse(t, `
name: ok
description: "parses"
layers:
  - id: a
    title: Alpha
    props:
      visible: true
      tags: [x, y]
steps:
  - op: target.insert
    layer: a
    index: 0
  - op: model.load
    layers: [a]
    additive: true
assertions:
  - type: in_sync
`)

	assert.Equal(t, "ok", s.Name)
	require.Len(t, s.Layers, 1)
	assert.Equal(t, true, s.Layers[0].Props["visible"])
	require.Len(t, s.Steps, 2)
	require.NotNil(t, s.Steps[0].Index)
	assert.Equal(t, 0, *s.Steps[0].Index)
	assert.Nil(t, s.Steps[1].Index)
	assert.True(t, s.Steps[1].Additive)
	assert.True(t, s.ShouldBind())
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "d"
layers: [{id: a, title: A}]
assertion:
  - type: in_sync
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `description: d
layers: [{id: a}]
assertions: [{type: in_sync}]`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `name: n
layers: [{id: a}]
assertions: [{type: in_sync}]`,
			want: "description is required",
		},
		{
			name: "no layers",
			yaml: `name: n
description: d
assertions: [{type: in_sync}]`,
			want: "layers or manifest is required",
		},
		{
			name: "no assertions",
			yaml: `name: n
description: d
layers: [{id: a}]`,
			want: "assertions list is required",
		},
		{
			name: "duplicate layer",
			yaml: `name: n
description: d
layers: [{id: a}, {id: a}]
assertions: [{type: in_sync}]`,
			want: `layers[1]: duplicate id "a"`,
		},
		{
			name: "unknown target layer",
			yaml: `name: n
description: d
layers: [{id: a}]
target: [b]
assertions: [{type: in_sync}]`,
			want: `target[0]: unknown layer "b"`,
		},
		{
			name: "unknown op",
			yaml: `name: n
description: d
layers: [{id: a}]
steps: [{op: target.shuffle}]
assertions: [{type: in_sync}]`,
			want: `steps[0]: unknown op "target.shuffle"`,
		},
		{
			name: "set without key",
			yaml: `name: n
description: d
layers: [{id: a}]
steps: [{op: model.set, layer: a}]
assertions: [{type: in_sync}]`,
			want: "key is required for model.set",
		},
		{
			name: "replace without with",
			yaml: `name: n
description: d
layers: [{id: a}]
steps: [{op: model.replace, layer: a}]
assertions: [{type: in_sync}]`,
			want: "with is required",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
layers: [{id: a}]
assertions: [{type: final_state}]`,
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "unknown event",
			yaml: `name: n
description: d
layers: [{id: a}]
assertions: [{type: event_count, event: model.commit, count: 1}]`,
			want: "unknown event",
		},
		{
			name: "title needs string",
			yaml: `name: n
description: d
layers: [{id: a}]
assertions: [{type: title, layer: a, value: 3}]`,
			want: "value must be a string",
		},
		{
			name: "bound needs bool",
			yaml: `name: n
description: d
layers: [{id: a}]
assertions: [{type: bound}]`,
			want: "value must be a boolean",
		},
		{
			name: "manifest_name without manifest",
			yaml: `name: n
description: d
layers: [{id: a}]
manifest_name: base
assertions: [{type: in_sync}]`,
			want: "manifest_name requires manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesManifestPath(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "manifest_changed.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "manifests", "basic.cue"), s.Manifest)
}

func TestLoadScenario_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.yaml", `
name: n
description: d
manifest: nowhere.cue
assertions: [{type: in_sync}]
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "manifest file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)

	single, err := Discover(files[0])
	require.NoError(t, err)
	assert.Equal(t, files[:1], single)

	_, err = Discover(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

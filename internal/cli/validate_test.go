package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifests = `package layers

manifest: base: {
	layers: [
		{id: "roads", title: "Roads"},
		{id: "rivers", title: "Rivers", props: {visible: true, opacity: 80}},
	]
}
manifest: overlay: {
	layers: [{id: "labels"}]
}
`

func executeValidate(t *testing.T, format string, verbose bool, dir string) (string, string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format, Verbose: verbose})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	return buf.String(), errBuf.String(), err
}

func TestValidateValidManifests(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": validManifests})

	out, _, err := executeValidate(t, "text", false, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "base: 2 layer(s)")
	assert.Contains(t, out, "overlay: 1 layer(s)")
	assert.Contains(t, out, "✓ All manifests valid")
}

func TestValidateValidManifestsJSON(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": validManifests})

	out, _, err := executeValidate(t, "json", false, dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []ManifestSummary{{Name: "base", Layers: 2}, {Name: "overlay", Layers: 1}}, resp.Data.Manifests)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, _, err := executeValidate(t, "text", false, "/nonexistent/manifests")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out+err.Error(), "manifest directory not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := executeValidate(t, "text", false, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out+err.Error(), "no CUE files found")
}

func TestValidateDuplicateLayerID(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": `package layers

manifest: base: {
	layers: [{id: "roads"}, {id: "roads"}]
}
`})

	out, _, err := executeValidate(t, "text", false, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `[E103] manifest base: layers[1].id: layer id "roads" already used by layers[0]`)
}

func TestValidateMultipleErrorsJSON(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": `package layers

manifest: base: {
	layers: [
		{id: " padded "},
		{id: "roads", props: {title: "Nope"}},
	]
}
`})

	out, _, err := executeValidate(t, "json", false, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "E105", resp.Data.Errors[0].Code)
	assert.Equal(t, "E104", resp.Data.Errors[1].Code)
}

func TestValidateFloatRejection(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": `package layers

manifest: base: {
	layers: [{id: "roads", props: {opacity: 0.5}}]
}
`})

	out, _, err := executeValidate(t, "text", false, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E007")
	assert.Contains(t, out, "floats are not allowed")
}

func TestValidateNoManifests(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"other.cue": "package layers\n\nsettings: {zoom: 3}\n"})

	out, _, err := executeValidate(t, "text", false, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no manifests found")
}

func TestValidateVerboseOutput(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"layers.cue": validManifests})

	_, errOut, err := executeValidate(t, "text", true, dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Found 1 CUE file(s)")
	assert.Contains(t, errOut, "Validating manifest: base (2 layers)")
}

func TestFindCUEFiles(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"a.cue":        "x: 1\n",
		"b.cue":        "y: 2\n",
		"notes.txt":    "ignored",
		"sub/deep.cue": "z: 3\n",
	})

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(dir, "b.cue")}, files)

	_, err = FindCUEFiles(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
}

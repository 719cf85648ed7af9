package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadValidBundle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video.json", `{"width":1920,"height":1080,"fps":60,"duration_ms":10000}`)
	writeFile(t, dir, "mouse_moves.json", `[{"process_time_ms":0,"x":0,"y":0,"cursor_id":"A"},{"process_time_ms":100,"x":10,"y":10,"cursor_id":"A"}]`)
	writeFile(t, dir, "mouse_clicks.json", `[{"process_time_ms":50,"x":5,"y":5,"button":"left","phase":"down"}]`)

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.Video.DurationMS)
	assert.Len(t, b.MouseMoves, 2)
	assert.Len(t, b.MouseClicks, 1)
	assert.Equal(t, int64(0), b.AudioDriftMS())
}

func TestLoadMissingVideoMetadataIsBundleInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, KindBundleInvalid, bErr.Kind)
}

func TestLoadRejectsUnsortedMoves(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video.json", `{"width":1920,"height":1080,"fps":60,"duration_ms":10000}`)
	writeFile(t, dir, "mouse_moves.json", `[{"process_time_ms":100},{"process_time_ms":50}]`)
	writeFile(t, dir, "mouse_clicks.json", `[]`)

	_, err := Load(dir)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, KindBundleInvalid, bErr.Kind)
}

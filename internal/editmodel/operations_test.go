package editmodel

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(logrus.NewEntry(logrus.New()))
}

// TestScenarioB_SplitThenRemove exercises spec §8 Scenario B: split a
// 10s scene at 4000ms, then remove the resulting first clip, and checks
// that both tracks stay linked and S2 still covers the (now shorter) total.
func TestScenarioB_SplitThenRemove(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 10_000)
	sceneID := p.Scenes[0].ID

	p, err := e.SplitAllTracksAt(sceneID, 4000)
	require.NoError(t, err)
	scene := p.Scenes[0]
	require.Len(t, scene.ScreenSlices, 2)
	require.Len(t, scene.CameraSlices, 2)
	assert.Equal(t, int64(4000), scene.ScreenSlices[0].SourceEndMS)
	assert.Equal(t, int64(4000), scene.ScreenSlices[1].SourceStartMS)
	assert.Equal(t, int64(10_000), scene.TotalOutputDurationMS())
	require.NoError(t, validateScene(scene))

	firstClipID := scene.ScreenSlices[0].ID
	p, err = e.RemoveClip(sceneID, firstClipID)
	require.NoError(t, err)
	scene = p.Scenes[0]
	require.Len(t, scene.ScreenSlices, 1)
	require.Len(t, scene.CameraSlices, 1)
	assert.Equal(t, int64(6000), scene.TotalOutputDurationMS())
	require.NoError(t, validateScene(scene))
	// Layout must still cover [0, total] exactly (S2).
	require.Len(t, scene.Layouts, 1)
	assert.Equal(t, int64(0), scene.Layouts[0].StartMS)
	assert.Equal(t, int64(6000), scene.Layouts[0].EndMS)
}

// TestP4_SplitRefusesBelowMinSlice checks property P4: a split that would
// leave either half shorter than MIN_SLICE_MS is refused and leaves the
// project untouched.
func TestP4_SplitRefusesBelowMinSlice(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 1000)
	sceneID := p.Scenes[0].ID

	_, err := e.SplitAllTracksAt(sceneID, 50) // would leave a 50ms half
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))

	// Project unchanged.
	still := e.Snapshot()
	assert.Equal(t, p, still)
}

// TestP5_RemoveRefusesWhenTrackWouldBeEmpty checks property P5.
func TestP5_RemoveRefusesWhenTrackWouldBeEmpty(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 5000)
	sceneID := p.Scenes[0].ID
	onlyClipID := p.Scenes[0].ScreenSlices[0].ID

	_, err := e.RemoveClip(sceneID, onlyClipID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))
}

// TestP6_TrimPreservesS1AndRipplesLayouts checks property P6: trimming a
// slice's source bounds changes total_output_duration and layouts ripple to
// stay contiguous, but a trim that would violate S1 is refused.
func TestP6_TrimPreservesS1AndRipplesLayouts(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 10_000)
	sceneID := p.Scenes[0].ID
	clipID := p.Scenes[0].ScreenSlices[0].ID

	newEnd := int64(6000)
	p, err := e.UpdateSlice(sceneID, TrackScreen, clipID, SlicePatch{SourceEndMS: &newEnd})
	require.NoError(t, err)
	scene := p.Scenes[0]
	assert.Equal(t, int64(6000), scene.TotalOutputDurationMS())
	require.NoError(t, validateScene(scene))
	require.Len(t, scene.Layouts, 1)
	assert.Equal(t, int64(6000), scene.Layouts[0].EndMS)

	tooShort := int64(50)
	_, err = e.UpdateSlice(sceneID, TrackScreen, clipID, SlicePatch{SourceEndMS: &tooShort})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))
}

func TestSplitAndRemoveLayout(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 10_000)
	sceneID := p.Scenes[0].ID
	layoutID := p.Scenes[0].Layouts[0].ID

	p, err := e.SplitLayout(sceneID, layoutID, 4000)
	require.NoError(t, err)
	scene := p.Scenes[0]
	require.Len(t, scene.Layouts, 2)
	assert.Equal(t, int64(0), scene.Layouts[0].StartMS)
	assert.Equal(t, int64(4000), scene.Layouts[0].EndMS)
	assert.Equal(t, int64(4000), scene.Layouts[1].StartMS)
	assert.Equal(t, int64(10_000), scene.Layouts[1].EndMS)

	// Splitting too close to an edge is refused.
	_, err = e.SplitLayout(sceneID, scene.Layouts[0].ID, 20)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))

	secondID := scene.Layouts[1].ID
	p, err = e.RemoveLayout(sceneID, secondID)
	require.NoError(t, err)
	scene = p.Scenes[0]
	require.Len(t, scene.Layouts, 1)
	assert.Equal(t, int64(10_000), scene.Layouts[0].EndMS)
}

func TestReorderWithinTrack(t *testing.T) {
	e := newTestEngine()
	p := e.CreateFromRecording(ProjectConfig{}, 9000)
	sceneID := p.Scenes[0].ID

	p, err := e.SplitAllTracksAt(sceneID, 3000)
	require.NoError(t, err)
	p, err = e.SplitAllTracksAt(sceneID, 6000)
	require.NoError(t, err)
	scene := p.Scenes[0]
	require.Len(t, scene.ScreenSlices, 3)
	firstID := scene.ScreenSlices[0].ID

	p, err = e.Reorder(sceneID, TrackScreen, 0, 2)
	require.NoError(t, err)
	scene = p.Scenes[0]
	assert.Equal(t, firstID, scene.ScreenSlices[2].ID)
}

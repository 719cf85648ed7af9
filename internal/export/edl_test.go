package export

import (
	"testing"

	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/stretchr/testify/assert"
)

func TestBuildEDLMirrorsSlices(t *testing.T) {
	slices := []editmodel.Slice{
		{ID: "a", SourceStartMS: 0, SourceEndMS: 4000, TimeScale: 1},
		{ID: "b", SourceStartMS: 4000, SourceEndMS: 10_000, TimeScale: 2},
	}
	edl := BuildEDL(slices)
	assert.Equal(t, []Entry{
		{SourceStartMS: 0, SourceEndMS: 4000, TimeScale: 1},
		{SourceStartMS: 4000, SourceEndMS: 10_000, TimeScale: 2},
	}, edl)
	assert.Equal(t, int64(10_000), TotalSourceMS(edl))
}

func TestBuildSceneEDLsIndependentPerTrack(t *testing.T) {
	scene := editmodel.Scene{
		ScreenSlices: []editmodel.Slice{{ID: "s1", SourceStartMS: 0, SourceEndMS: 4000, TimeScale: 1}},
		CameraSlices: []editmodel.Slice{{ID: "c1", SourceStartMS: 1000, SourceEndMS: 5000, TimeScale: 1}},
	}
	screen, camera := BuildSceneEDLs(scene)
	assert.Equal(t, int64(0), screen[0].SourceStartMS)
	assert.Equal(t, int64(1000), camera[0].SourceStartMS)
}

// Package export turns a track's Slice sequence into the Edit Decision
// List an external exporter concatenates to produce final media (spec §6,
// "Exporter interface"). It is grounded on the teacher's
// CreateEditsWithOptionalSilence walk (editSilences.go), stripped of its
// silence-specific branching and applied directly to Slice[].
package export

import "github.com/oliwoli/castcut/internal/editmodel"

// Entry is one EDL row: a source interval played back at a given speed.
type Entry struct {
	SourceStartMS int64
	SourceEndMS   int64
	TimeScale     float64
}

// BuildEDL returns the ordered EDL for one track. The screen and camera
// tracks are built independently — their linking is structural, not
// numerical, so after trims they may diverge; the exporter multiplexes
// them back together.
func BuildEDL(slices []editmodel.Slice) []Entry {
	out := make([]Entry, len(slices))
	for i, s := range slices {
		out[i] = Entry{
			SourceStartMS: s.SourceStartMS,
			SourceEndMS:   s.SourceEndMS,
			TimeScale:     s.TimeScale,
		}
	}
	return out
}

// BuildSceneEDLs returns the screen and camera EDLs for one scene.
func BuildSceneEDLs(scene editmodel.Scene) (screen, camera []Entry) {
	return BuildEDL(scene.ScreenSlices), BuildEDL(scene.CameraSlices)
}

// TotalSourceMS sums the source-side duration an EDL will read from the
// underlying media, ignoring time_scale (useful for progress reporting).
func TotalSourceMS(edl []Entry) int64 {
	var total int64
	for _, e := range edl {
		total += e.SourceEndMS - e.SourceStartMS
	}
	return total
}

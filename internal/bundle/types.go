// Package bundle loads a pre-materialised recording bundle: the external,
// read-only collaborator described in spec §3 ("RecordingBundle") and §6
// ("open_bundle"). Capture and on-disk layout are out of scope (spec §1);
// this package only parses what the core needs — media metadata, audio
// durations for drift compensation, and the sorted event streams that seed
// an eventindex.Index.
package bundle

import "github.com/oliwoli/castcut/internal/eventindex"

// VideoMeta mirrors the RecordingBundle "video metadata" fields.
type VideoMeta struct {
	Width      int
	Height     int
	FPS        float64
	DurationMS int64
}

// AudioTrack is an optional mic or system-audio sidecar file.
type AudioTrack struct {
	Path       string
	DurationMS int64
	SampleRate int
	NumChans   int
}

// CursorImage is one entry of the bundle's cursor-id -> image+hotspot map.
type CursorImage struct {
	Path      string
	HotspotX  int
	HotspotY  int
}

// RecordingBundle is the immutable, read-only-after-load external input
// (spec §3). Its only consumer is internal/server, which hands the move and
// click streams to internal/eventindex and Δ_audio and fps to
// internal/resolver.
type RecordingBundle struct {
	Video       VideoMeta
	Webcam      *VideoMeta
	Mic         *AudioTrack
	SystemAudio *AudioTrack
	MouseMoves  []eventindex.MouseMove
	MouseClicks []eventindex.MouseClick
	Cursors     map[string]CursorImage
}

// AudioDriftMS reports Δ_audio for the mic track, or 0 if there is none.
func (b *RecordingBundle) AudioDriftMS() int64 {
	if b.Mic == nil {
		return 0
	}
	d := b.Video.DurationMS - b.Mic.DurationMS
	if d < 0 {
		return 0
	}
	return d
}

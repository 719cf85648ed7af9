package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type videoMetaDTO struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	DurationMS      int64   `json:"duration_ms"`
	WebcamPath      string  `json:"webcam_path,omitempty"`
	MicAudioPath    string  `json:"mic_audio_path,omitempty"`
	SystemAudioPath string  `json:"system_audio_path,omitempty"`
}

// Load reads a bundle directory (video.json, mouse_moves.json,
// mouse_clicks.json, and optional audio sidecars) into a RecordingBundle,
// failing with BundleInvalid on any missing video or malformed/unsorted
// stream (spec §7).
func Load(dir string) (*RecordingBundle, error) {
	metaPath := filepath.Join(dir, "video.json")
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, newErr("missing video metadata at %q: %v", metaPath, err)
	}
	var meta videoMetaDTO
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, newErr("parsing video metadata %q: %v", metaPath, err)
	}
	if meta.DurationMS <= 0 || meta.FPS <= 0 {
		return nil, newErr("video metadata %q has non-positive duration or fps", metaPath)
	}

	moves, err := LoadMouseMoves(filepath.Join(dir, "mouse_moves.json"))
	if err != nil {
		return nil, err
	}
	clicks, err := LoadMouseClicks(filepath.Join(dir, "mouse_clicks.json"))
	if err != nil {
		return nil, err
	}

	b := &RecordingBundle{
		Video: VideoMeta{Width: meta.Width, Height: meta.Height, FPS: meta.FPS, DurationMS: meta.DurationMS},
		MouseMoves:  moves,
		MouseClicks: clicks,
		Cursors:     map[string]CursorImage{},
	}

	if meta.MicAudioPath != "" {
		dms, format, err := ProbeWAV(filepath.Join(dir, meta.MicAudioPath))
		if err != nil {
			return nil, err
		}
		b.Mic = &AudioTrack{Path: meta.MicAudioPath, DurationMS: dms, SampleRate: format.SampleRate, NumChans: format.NumChans}
	}
	if meta.SystemAudioPath != "" {
		dms, format, err := ProbeWAV(filepath.Join(dir, meta.SystemAudioPath))
		if err != nil {
			return nil, err
		}
		b.SystemAudio = &AudioTrack{Path: meta.SystemAudioPath, DurationMS: dms, SampleRate: format.SampleRate, NumChans: format.NumChans}
	}

	return b, nil
}

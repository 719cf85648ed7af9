package bundle

import (
	"os"

	"github.com/go-audio/wav"
)

// WAVFormat reports the subset of a WAV file's header the bundle loader
// keeps on an AudioTrack (spec §3, audio sidecar metadata).
type WAVFormat struct {
	SampleRate int
	NumChans   int
}

// ProbeWAV opens a WAV sidecar, validates its header, and returns its
// duration and PCM format. Grounded on the teacher's waveform decoding
// path (waveform.go's wav.NewDecoder + audio.Format read), but stops at
// the header: full PCM decode / peak rendering is explicitly out of scope
// (spec §1, "waveform rendering").
func ProbeWAV(path string) (durationMS int64, format WAVFormat, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return 0, WAVFormat{}, newErr("opening audio file %q: %v", path, openErr)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, WAVFormat{}, newErr("%q is not a valid WAV file", path)
	}

	// decoder.Format() returns the *audio.Format go-audio/wav decodes the
	// header into; the teacher's waveform.go reads the same fields to size
	// its IntBuffer chunks.
	audioFormat := decoder.Format()
	if audioFormat == nil {
		return 0, WAVFormat{}, newErr("could not read audio format for %q", path)
	}

	dur, durErr := decoder.Duration()
	if durErr != nil {
		return 0, WAVFormat{}, newErr("reading duration of %q: %v", path, durErr)
	}
	return dur.Milliseconds(), WAVFormat{SampleRate: audioFormat.SampleRate, NumChans: audioFormat.NumChannels}, nil
}

// ProbeWAVDurationMS is ProbeWAV without the format detail, for callers
// that only need duration (e.g. Δ_audio computation).
func ProbeWAVDurationMS(path string) (int64, error) {
	dur, _, err := ProbeWAV(path)
	return dur, err
}

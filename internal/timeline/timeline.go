// Package timeline implements the time algebra: pure, stateless functions
// that map between output time and per-slice source time over an ordered
// sequence of slices. Nothing here holds state or mutates its arguments.
package timeline

import (
	"math"

	"github.com/samber/lo"
)

// MinSliceMS is the shortest a slice may be on either track (invariant S1).
const MinSliceMS int64 = 100

// Slice is a selection of a half-open source interval played back at a
// given speed. Durations are milliseconds; TimeScale > 0, 1 == real-time.
type Slice struct {
	ID                     string
	SourceStartMS          int64
	SourceEndMS            int64
	TimeScale              float64
	Volume                 float64
	HideCursor             bool
	DisableCursorSmoothing bool
}

// SourceDurationMS is the slice's span in source time, before time_scale.
func (s Slice) SourceDurationMS() int64 {
	return s.SourceEndMS - s.SourceStartMS
}

// outputDurationF is the slice's output-time duration as an unrounded
// float64; rounding only happens at the boundaries callers observe.
func (s Slice) outputDurationF() float64 {
	return float64(s.SourceEndMS-s.SourceStartMS) / s.TimeScale
}

// SliceOutputDurationMS rounds outputDurationF half-to-even, for callers
// that need a single slice's duration rather than a cumulative position.
func SliceOutputDurationMS(s Slice) int64 {
	return roundHalfEven(s.outputDurationF())
}

// roundHalfEven implements banker's rounding of a float64 to int64, since
// math.Round always rounds .5 away from zero.
func roundHalfEven(f float64) int64 {
	floor := math.Floor(f)
	frac := f - floor
	fi := int64(floor)
	switch {
	case frac < 0.5:
		return fi
	case frac > 0.5:
		return fi + 1
	default:
		if fi%2 == 0 {
			return fi
		}
		return fi + 1
	}
}

// RenderInfo describes one slice's placement on the output timeline.
type RenderInfo struct {
	Index              int
	OutputStartMS      int64
	OutputEndMS        int64
	OutputDurationMS   int64
	cumulativeStartF   float64 // unrounded, used internally by OutputToSource
}

// RenderInfos computes, in a single O(n) pass, each slice's output-time
// placement. This is the only function layout/UI code needs.
func RenderInfos(slices []Slice) []RenderInfo {
	infos := make([]RenderInfo, len(slices))
	var acc float64
	for i, s := range slices {
		start := acc
		acc += s.outputDurationF()
		outStart := roundHalfEven(start)
		outEnd := roundHalfEven(acc)
		infos[i] = RenderInfo{
			Index:            i,
			OutputStartMS:    outStart,
			OutputEndMS:      outEnd,
			OutputDurationMS: outEnd - outStart,
			cumulativeStartF: start,
		}
	}
	return infos
}

// TotalOutputDuration sums slice output durations. With no slices, it is 0.
func TotalOutputDuration(slices []Slice) int64 {
	infos := RenderInfos(slices)
	if len(infos) == 0 {
		return 0
	}
	return infos[len(infos)-1].OutputEndMS
}

// OutputToSource locates the slice covering output time tOut, clamped to
// [0, total_output_duration], and the corresponding source time within it.
// Returns (-1, 0) for an empty slice sequence.
func OutputToSource(slices []Slice, tOut int64) (sliceIndex int, sourceMS int64) {
	if len(slices) == 0 {
		return -1, 0
	}
	infos := RenderInfos(slices)
	total := infos[len(infos)-1].OutputEndMS
	if tOut < 0 {
		tOut = 0
	}
	if tOut >= total {
		last := len(slices) - 1
		return last, slices[last].SourceEndMS
	}
	for i, info := range infos {
		if tOut < info.OutputEndMS {
			s := slices[i]
			offsetOut := float64(tOut) - info.cumulativeStartF
			srcF := float64(s.SourceStartMS) + offsetOut*s.TimeScale
			return i, roundHalfEven(srcF)
		}
	}
	last := len(slices) - 1
	return last, slices[last].SourceEndMS
}

// SourceToOutput is the inverse of OutputToSource for a single, known slice.
func SourceToOutput(slices []Slice, sliceIndex int, sourceMS int64) int64 {
	infos := RenderInfos(slices)
	if sliceIndex < 0 || sliceIndex >= len(slices) {
		return 0
	}
	s := slices[sliceIndex]
	offsetSrc := float64(sourceMS - s.SourceStartMS)
	outF := infos[sliceIndex].cumulativeStartF + offsetSrc/s.TimeScale
	return roundHalfEven(outF)
}

// ClampOutputTime clamps t to [0, total_output_duration(slices)].
func ClampOutputTime(slices []Slice, t int64) int64 {
	total := TotalOutputDuration(slices)
	return lo.Clamp(t, int64(0), total)
}

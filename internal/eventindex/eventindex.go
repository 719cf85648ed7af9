// Package eventindex provides immutable, sorted indices over a recording's
// mouse-move and mouse-click streams (spec §4.3). An Index is built once per
// loaded bundle and never mutated afterward; all queries are read-only.
package eventindex

import "sort"

// MouseMove is one raw cursor-position sample in the recording's SOURCE
// timeline.
type MouseMove struct {
	ProcessTimeMS int64
	X, Y          float64
	CursorID      string
}

// ClickPhase distinguishes a button press from its release.
type ClickPhase string

const (
	PhaseDown ClickPhase = "down"
	PhaseUp   ClickPhase = "up"
)

// MouseClick is one button transition in the recording's SOURCE timeline.
type MouseClick struct {
	ProcessTimeMS int64
	X, Y          float64
	Button        string
	Phase         ClickPhase
}

// RecentClick annotates a click with its age relative to the query time.
type RecentClick struct {
	MouseClick
	AgeMS int64
}

// Sample is the result of a move query: either an exact recorded sample or
// a linear interpolation between two of them.
type Sample struct {
	X, Y     float64
	CursorID string
}

// Index is an immutable, binary-searchable view over one recording's event
// streams. The zero value is not usable; construct with New.
type Index struct {
	moves  []MouseMove
	clicks []MouseClick
}

// New builds an Index from streams already sorted ascending by
// ProcessTimeMS (invariant M). It copies the inputs so the caller's slices
// remain free to mutate afterward.
func New(moves []MouseMove, clicks []MouseClick) *Index {
	idx := &Index{
		moves:  append([]MouseMove(nil), moves...),
		clicks: append([]MouseClick(nil), clicks...),
	}
	return idx
}

// IsSorted reports whether the stream satisfies invariant M (strictly
// non-decreasing process_time_ms). Callers building a bundle should check
// this and surface BundleInvalid if it fails; New does not sort its inputs.
func IsSorted(moves []MouseMove, clicks []MouseClick) bool {
	for i := 1; i < len(moves); i++ {
		if moves[i].ProcessTimeMS < moves[i-1].ProcessTimeMS {
			return false
		}
	}
	for i := 1; i < len(clicks); i++ {
		if clicks[i].ProcessTimeMS < clicks[i-1].ProcessTimeMS {
			return false
		}
	}
	return true
}

// sampleIndexAt returns the greatest index with ProcessTimeMS <= t, or -1 if
// t is before the first sample.
func (idx *Index) sampleIndexAt(t int64) int {
	n := len(idx.moves)
	if n == 0 {
		return -1
	}
	// sort.Search finds the first index for which the predicate is true;
	// we want the first index with ProcessTimeMS > t, then step back one.
	i := sort.Search(n, func(i int) bool { return idx.moves[i].ProcessTimeMS > t })
	return i - 1
}

// SampleAt implements sample_at: binary-search the greatest sample with
// process_time_ms <= t. ok is false if t precedes the first sample.
func (idx *Index) SampleAt(t int64) (m MouseMove, ok bool) {
	i := idx.sampleIndexAt(t)
	if i < 0 {
		return MouseMove{}, false
	}
	return idx.moves[i], true
}

// InterpolatedAt implements interpolated_at: linear interpolation of x,y
// between sample i and i+1 when both exist; cursor_id is never
// interpolated, it takes sample i's value verbatim.
func (idx *Index) InterpolatedAt(t int64) (Sample, bool) {
	i := idx.sampleIndexAt(t)
	if i < 0 {
		return Sample{}, false
	}
	cur := idx.moves[i]
	if i+1 >= len(idx.moves) {
		return Sample{X: cur.X, Y: cur.Y, CursorID: cur.CursorID}, true
	}
	next := idx.moves[i+1]
	span := next.ProcessTimeMS - cur.ProcessTimeMS
	if span <= 0 {
		return Sample{X: cur.X, Y: cur.Y, CursorID: cur.CursorID}, true
	}
	factor := float64(t-cur.ProcessTimeMS) / float64(span)
	return Sample{
		X:        cur.X + (next.X-cur.X)*factor,
		Y:        cur.Y + (next.Y-cur.Y)*factor,
		CursorID: cur.CursorID,
	}, true
}

// ClicksInRange implements clicks_in_range: clicks with t0 <= process_time_ms <= t1.
func (idx *Index) ClicksInRange(t0, t1 int64) []MouseClick {
	lo := sort.Search(len(idx.clicks), func(i int) bool { return idx.clicks[i].ProcessTimeMS >= t0 })
	hi := sort.Search(len(idx.clicks), func(i int) bool { return idx.clicks[i].ProcessTimeMS > t1 })
	if lo >= hi {
		return nil
	}
	out := make([]MouseClick, hi-lo)
	copy(out, idx.clicks[lo:hi])
	return out
}

// RecentClicks implements recent_clicks: only down-phase events within
// [t_now-window, t_now], each annotated with age = t_now - process_time_ms.
func (idx *Index) RecentClicks(tNow, windowMS int64) []RecentClick {
	t0 := tNow - windowMS
	in := idx.ClicksInRange(t0, tNow)
	out := make([]RecentClick, 0, len(in))
	for _, c := range in {
		if c.Phase != PhaseDown {
			continue
		}
		out = append(out, RecentClick{MouseClick: c, AgeMS: tNow - c.ProcessTimeMS})
	}
	return out
}

// Len reports the number of move samples, mostly useful for tests.
func (idx *Index) Len() int { return len(idx.moves) }

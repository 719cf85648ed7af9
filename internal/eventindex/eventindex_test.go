package eventindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMoves() []MouseMove {
	return []MouseMove{
		{ProcessTimeMS: 0, X: 0, Y: 0, CursorID: "A"},
		{ProcessTimeMS: 100, X: 1000, Y: 0, CursorID: "A"},
		{ProcessTimeMS: 200, X: 1000, Y: 500, CursorID: "B"},
	}
}

// linearScanSampleAt is the naive reference implementation used to check P7.
func linearScanSampleAt(moves []MouseMove, t int64) (MouseMove, bool) {
	best := -1
	for i, m := range moves {
		if m.ProcessTimeMS <= t {
			best = i
		}
	}
	if best == -1 {
		return MouseMove{}, false
	}
	return moves[best], true
}

// TestP7_SampleAtMatchesLinearScan checks property P7 across a spread of
// query times, including before-first and after-last.
func TestP7_SampleAtMatchesLinearScan(t *testing.T) {
	moves := sampleMoves()
	idx := New(moves, nil)
	for _, q := range []int64{-50, 0, 1, 99, 100, 150, 200, 500} {
		want, wantOK := linearScanSampleAt(moves, q)
		got, gotOK := idx.SampleAt(q)
		require.Equal(t, wantOK, gotOK, "t=%d", q)
		if wantOK {
			assert.Equal(t, want, got, "t=%d", q)
		}
	}
}

func TestSampleAtBeforeFirst(t *testing.T) {
	idx := New(sampleMoves(), nil)
	_, ok := idx.SampleAt(-1)
	assert.False(t, ok)
}

func TestInterpolatedAtBetweenSamples(t *testing.T) {
	idx := New(sampleMoves(), nil)
	s, ok := idx.InterpolatedAt(50)
	require.True(t, ok)
	assert.InDelta(t, 500, s.X, 0.001)
	assert.InDelta(t, 0, s.Y, 0.001)
	assert.Equal(t, "A", s.CursorID) // cursor_id takes sample i's value, never interpolated
}

func TestInterpolatedAtPastLastSample(t *testing.T) {
	idx := New(sampleMoves(), nil)
	s, ok := idx.InterpolatedAt(10_000)
	require.True(t, ok)
	assert.Equal(t, 1000.0, s.X)
	assert.Equal(t, 500.0, s.Y)
	assert.Equal(t, "B", s.CursorID)
}

func TestInterpolatedAtCursorIDNeverInterpolated(t *testing.T) {
	idx := New(sampleMoves(), nil)
	s, ok := idx.InterpolatedAt(150) // between sample index 1 (A) and 2 (B)
	require.True(t, ok)
	assert.Equal(t, "A", s.CursorID)
}

func TestClicksInRangeAndRecentClicks(t *testing.T) {
	clicks := []MouseClick{
		{ProcessTimeMS: 100, Button: "left", Phase: PhaseDown},
		{ProcessTimeMS: 120, Button: "left", Phase: PhaseUp},
		{ProcessTimeMS: 900, Button: "right", Phase: PhaseDown},
	}
	idx := New(nil, clicks)

	inRange := idx.ClicksInRange(100, 120)
	require.Len(t, inRange, 2)

	recent := idx.RecentClicks(1000, 500)
	require.Len(t, recent, 1)
	assert.Equal(t, "right", recent[0].Button)
	assert.Equal(t, int64(100), recent[0].AgeMS)
}

func TestIsSortedDetectsViolation(t *testing.T) {
	moves := []MouseMove{{ProcessTimeMS: 10}, {ProcessTimeMS: 5}}
	assert.False(t, IsSorted(moves, nil))
	assert.True(t, IsSorted(sampleMoves(), nil))
}

func TestBuilderDedupesRepeatedBuilds(t *testing.T) {
	var b Builder
	calls := 0
	src := func() ([]MouseMove, []MouseClick, error) {
		calls++
		return sampleMoves(), nil, nil
	}
	idx1, err := b.Build("bundle-1", src)
	require.NoError(t, err)
	idx2, err := b.Build("bundle-1", src)
	require.NoError(t, err)
	assert.Same(t, idx1, idx2)
	assert.Equal(t, 1, calls)
}

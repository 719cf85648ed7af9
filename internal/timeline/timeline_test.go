package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSlice(id string, start, end int64, scale float64) Slice {
	return Slice{ID: id, SourceStartMS: start, SourceEndMS: end, TimeScale: scale, Volume: 1}
}

func TestOutputToSourceEmpty(t *testing.T) {
	idx, src := OutputToSource(nil, 500)
	assert.Equal(t, -1, idx)
	assert.EqualValues(t, 0, src)
}

func TestRenderInfosSingleSlice(t *testing.T) {
	slices := []Slice{mkSlice("a", 0, 10000, 1)}
	infos := RenderInfos(slices)
	require.Len(t, infos, 1)
	assert.EqualValues(t, 0, infos[0].OutputStartMS)
	assert.EqualValues(t, 10000, infos[0].OutputEndMS)
	assert.EqualValues(t, 10000, TotalOutputDuration(slices))
}

func TestOutputToSourceScenarioA(t *testing.T) {
	slices := []Slice{mkSlice("a", 0, 10000, 1)}
	idx, src := OutputToSource(slices, 3000)
	assert.Equal(t, 0, idx)
	assert.EqualValues(t, 3000, src)
}

func TestSpeedUpSlice(t *testing.T) {
	// Scenario C: time_scale=2 halves output duration.
	slices := []Slice{mkSlice("a", 0, 10000, 2)}
	assert.EqualValues(t, 5000, TotalOutputDuration(slices))
	idx, src := OutputToSource(slices, 2500)
	assert.Equal(t, 0, idx)
	assert.EqualValues(t, 5000, src)
}

func TestOutputToSourceClampsToTotal(t *testing.T) {
	slices := []Slice{mkSlice("a", 0, 10000, 1)}
	idx, src := OutputToSource(slices, 999999)
	assert.Equal(t, 0, idx)
	assert.EqualValues(t, 10000, src)

	idx, src = OutputToSource(slices, -500)
	assert.Equal(t, 0, idx)
	assert.EqualValues(t, 0, src)
}

// P1: output_to_source(source_to_output(i, s)) == (i, s) for s within slice i.
func TestRoundTripP1(t *testing.T) {
	slices := []Slice{
		mkSlice("a", 0, 4000, 1),
		mkSlice("b", 4000, 10000, 1.5),
	}
	for _, sourceMS := range []int64{0, 1000, 3999, 4000, 6000, 9999} {
		sliceIdx := 0
		if sourceMS >= 4000 {
			sliceIdx = 1
		}
		tOut := SourceToOutput(slices, sliceIdx, sourceMS)
		gotIdx, gotSrc := OutputToSource(slices, tOut)
		assert.Equal(t, sliceIdx, gotIdx, "source=%d tOut=%d", sourceMS, tOut)
		assert.InDelta(t, sourceMS, gotSrc, 1, "source=%d tOut=%d", sourceMS, tOut)
	}
}

// P2: output_to_source always returns a valid index and source within bounds.
func TestOutputToSourceBoundsP2(t *testing.T) {
	slices := []Slice{
		mkSlice("a", 0, 4000, 1),
		mkSlice("b", 4000, 10000, 2),
	}
	total := TotalOutputDuration(slices)
	for t_out := int64(0); t_out <= total; t_out += 37 {
		idx, src := OutputToSource(slices, t_out)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(slices))
		require.GreaterOrEqual(t, src, slices[idx].SourceStartMS)
		require.LessOrEqual(t, src, slices[idx].SourceEndMS)
	}
}

// P3: sum of per-slice output durations equals total_output_duration exactly.
func TestRenderInfosSumP3(t *testing.T) {
	slices := []Slice{
		mkSlice("a", 0, 3333, 1),
		mkSlice("b", 3333, 7777, 1.3),
		mkSlice("c", 7777, 20001, 0.7),
	}
	infos := RenderInfos(slices)
	var sum int64
	for _, info := range infos {
		sum += info.OutputDurationMS
	}
	assert.Equal(t, TotalOutputDuration(slices), sum)
}

func TestHalfToEvenRounding(t *testing.T) {
	assert.EqualValues(t, 2, roundHalfEven(2.5))
	assert.EqualValues(t, 4, roundHalfEven(3.5))
	assert.EqualValues(t, 2, roundHalfEven(1.5))
	assert.EqualValues(t, 0, roundHalfEven(0.4))
	assert.EqualValues(t, 1, roundHalfEven(0.6))
}

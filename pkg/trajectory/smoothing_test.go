package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothShortSegmentUnchanged(t *testing.T) {
	channel := ChannelOf(1, 5, 2, 8)

	smoothed, errs := SmoothSegments(channel, 7, 2, nil)

	assert.Empty(t, errs)
	assert.Equal(t, channel, smoothed)
}

func TestSmoothPreservesQuadratic(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		x := float64(i)
		values[i] = 2*x*x - 3*x + 1
	}

	smoothed, errs := SmoothSegments(ChannelOf(values...), 7, 2, nil)
	require.Empty(t, errs)

	for i, v := range smoothed {
		require.True(t, v.Valid)
		assert.InDelta(t, values[i], v.V, 1e-6, "index %d", i)
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 10
		if i%2 == 0 {
			values[i] += 1
		} else {
			values[i] -= 1
		}
	}

	smoothed, errs := SmoothSegments(ChannelOf(values...), 7, 2, nil)
	require.Empty(t, errs)

	for i := 3; i < len(values)-3; i++ {
		assert.Less(t, absDiff(smoothed[i].V, 10), 1.0, "index %d", i)
	}
}

func TestSmoothDoesNotBridgeGaps(t *testing.T) {
	values := make([]float64, 20)
	for i := 10; i < 20; i++ {
		values[i] = 100
	}
	gaps := []Gap{{Start: 9, End: 10}}

	smoothed, errs := SmoothSegments(ChannelOf(values...), 5, 2, gaps)
	require.Empty(t, errs)

	for i := 0; i < 10; i++ {
		assert.InDelta(t, 0, smoothed[i].V, 1e-9)
	}
	for i := 10; i < 20; i++ {
		assert.InDelta(t, 100, smoothed[i].V, 1e-9)
	}
}

func TestSmoothEvenWindowIsWidened(t *testing.T) {
	// six samples fit a window of 6 but not the widened window of 7
	channel := ChannelOf(1, 9, 1, 9, 1, 9)

	smoothed, errs := SmoothSegments(channel, 6, 2, nil)

	assert.Empty(t, errs)
	assert.Equal(t, channel, smoothed)
}

func TestSmoothFailureLeavesValues(t *testing.T) {
	channel := ChannelOf(1, 2, 3, 4, 5, 6, 7, 8, 9)

	smoothed, errs := SmoothSegments(channel, 3, 5, nil)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSmoothingFailure)
	assert.Equal(t, channel, smoothed)
}

func TestSmoothSkipsMissingValues(t *testing.T) {
	channel := ChannelOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	channel[4] = Missing

	smoothed, errs := SmoothSegments(channel, 3, 1, nil)
	require.Empty(t, errs)

	assert.False(t, smoothed[4].Valid)
	for i, v := range smoothed {
		if i == 4 {
			continue
		}
		assert.InDelta(t, channel[i].V, v.V, 1e-9, "linear data is preserved at %d", i)
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

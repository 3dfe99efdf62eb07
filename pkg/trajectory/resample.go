package trajectory

import (
	"golang.org/x/exp/slices"
)

const DefaultStepMs int64 = 1000

type Resampled struct {
	Timestamps   []int64
	Values       Channel
	Extrapolated []bool
}

// Grid builds first, first+step, ... up to and including last.
func Grid(first int64, last int64, stepMs int64) []int64 {
	if last < first || stepMs <= 0 {
		return nil
	}

	grid := make([]int64, (last-first)/stepMs+1)
	for i := range grid {
		grid[i] = first + int64(i)*stepMs
	}

	return grid
}

// Resample interpolates channel linearly onto a fixed grid spanning the timestamps.
// Nothing is ever extrapolated, points outside the data are flagged and left missing.
// Points strictly inside a gap are always missing. With fewer than two samples the
// input is handed back unchanged.
func Resample(timestamps []int64, channel Channel, gaps []Gap, stepMs int64) Resampled {
	if len(timestamps) < 2 {
		return Resampled{
			Timestamps:   slices.Clone(timestamps),
			Values:       slices.Clone(channel),
			Extrapolated: make([]bool, len(timestamps)),
		}
	}

	first := timestamps[0]
	last := timestamps[len(timestamps)-1]
	grid := Grid(first, last, stepMs)

	resampled := Resampled{
		Timestamps:   grid,
		Values:       make(Channel, len(grid)),
		Extrapolated: make([]bool, len(grid)),
	}

	for k, tick := range grid {
		if tick < first || tick > last {
			resampled.Extrapolated[k] = true
			continue
		}

		resampled.Values[k] = interpolate(timestamps, channel, tick)
	}

	for _, gap := range gaps {
		from := timestamps[gap.Start]
		to := timestamps[gap.End]

		k, found := slices.BinarySearch(grid, from)
		if found {
			k++
		}

		for ; k < len(grid) && grid[k] < to; k++ {
			resampled.Values[k] = Missing
		}
	}

	return resampled
}

func interpolate(timestamps []int64, channel Channel, tick int64) Value {
	j, found := slices.BinarySearch(timestamps, tick)
	if found {
		return channel[j]
	}

	i := j - 1
	if i < 0 || j >= len(timestamps) {
		return Missing
	}

	left, right := channel[i], channel[j]
	if !left.Valid || !right.Valid {
		return Missing
	}

	fraction := float64(tick-timestamps[i]) / float64(timestamps[j]-timestamps[i])

	return Some(left.V + fraction*(right.V-left.V))
}

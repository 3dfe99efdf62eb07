package trajectory

import "github.com/travigo/trajfusion/pkg/ctdf"

const DefaultLowSpeedThresholdMps = 1.0

// GapProximityMask flags grid ticks lying within one step of either side of a gap.
func GapProximityMask(grid []int64, timestamps []int64, gaps []Gap, stepMs int64) []bool {
	mask := make([]bool, len(grid))

	for _, gap := range gaps {
		from := timestamps[gap.Start] - stepMs
		to := timestamps[gap.End] + stepMs

		for k, tick := range grid {
			if tick >= from && tick <= to {
				mask[k] = true
			}
		}
	}

	return mask
}

// AnnotateQuality combines the masks into per tick flags. Heading is unreliable below
// the low speed threshold so those ticks get LowSpeed.
func AnnotateQuality(proximity []bool, extrapolated []bool, speed Channel, lowSpeedThreshold float64) []ctdf.QualityFlags {
	flags := make([]ctdf.QualityFlags, len(proximity))

	for k := range flags {
		flags[k].Gap = proximity[k]

		if k < len(extrapolated) {
			flags[k].Extrapolated = extrapolated[k]
		}

		if k < len(speed) && speed[k].Valid && speed[k].V < lowSpeedThreshold {
			flags[k].LowSpeed = true
		}
	}

	return flags
}

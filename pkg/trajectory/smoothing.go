package trajectory

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

var ErrSmoothingFailure = errors.New("smoothing failed")

const (
	DefaultSmoothingWindow = 7
	DefaultSmoothingOrder  = 2
)

// SmoothSegments runs a Savitzky-Golay filter over every gap free segment of the
// channel. Segments, or runs of valid values inside a segment, that are shorter than
// the window are left untouched. Failures are returned but never abort the other
// segments.
func SmoothSegments(channel Channel, window int, order int, gaps []Gap) (Channel, []error) {
	smoothed := slices.Clone(channel)

	if window%2 == 0 {
		window++
	}

	if len(channel) < window {
		return smoothed, nil
	}

	hat, err := savitzkyGolayProjection(window, order)
	if err != nil {
		return smoothed, []error{err}
	}

	var errs []error

	for _, segment := range Segments(len(channel), gaps) {
		for _, run := range validRuns(channel, segment) {
			if run.Len() < window {
				continue
			}

			values := make([]float64, run.Len())
			for i := range values {
				values[i] = channel[run.Start+i].V
			}

			filtered := applySavitzkyGolay(values, hat)

			if !allFinite(filtered) {
				errs = append(errs, fmt.Errorf("%w: non finite result for samples [%d:%d]", ErrSmoothingFailure, run.Start, run.End))
				continue
			}

			for i, v := range filtered {
				smoothed[run.Start+i] = Some(v)
			}
		}
	}

	return smoothed, errs
}

// savitzkyGolayProjection returns the window x window hat matrix A (AᵀA)⁻¹ Aᵀ of a least
// squares polynomial fit. Row window/2 holds the centre convolution weights, the other
// rows evaluate the fitted polynomial at the edge positions.
func savitzkyGolayProjection(window int, order int) (*mat.Dense, error) {
	if window < 3 || order < 0 || order >= window {
		return nil, fmt.Errorf("%w: polynomial order %d does not fit window %d", ErrSmoothingFailure, order, window)
	}

	half := window / 2
	vandermonde := mat.NewDense(window, order+1, nil)

	for i := 0; i < window; i++ {
		// scaled to [-1, 1] to keep the normal equations well conditioned
		x := float64(i-half) / float64(half)
		power := 1.0
		for j := 0; j <= order; j++ {
			vandermonde.Set(i, j, power)
			power *= x
		}
	}

	var normal mat.Dense
	normal.Mul(vandermonde.T(), vandermonde)

	var pseudoInverse mat.Dense
	if err := pseudoInverse.Solve(&normal, vandermonde.T()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSmoothingFailure, err)
	}

	var hat mat.Dense
	hat.Mul(vandermonde, &pseudoInverse)

	return &hat, nil
}

func applySavitzkyGolay(values []float64, hat *mat.Dense) []float64 {
	window, _ := hat.Dims()
	half := window / 2
	n := len(values)
	filtered := make([]float64, n)

	for centre := half; centre < n-half; centre++ {
		filtered[centre] = weightedSum(hat, half, values[centre-half:centre+half+1])
	}

	for i := 0; i < half; i++ {
		filtered[i] = weightedSum(hat, i, values[:window])
		filtered[n-half+i] = weightedSum(hat, half+1+i, values[n-window:])
	}

	return filtered
}

func weightedSum(hat *mat.Dense, row int, values []float64) float64 {
	sum := 0.0
	for k, v := range values {
		sum += hat.At(row, k) * v
	}

	return sum
}

func validRuns(channel Channel, segment Segment) []Segment {
	var runs []Segment
	start := -1

	for i := segment.Start; i < segment.End; i++ {
		if channel[i].Valid {
			if start < 0 {
				start = i
			}
			continue
		}

		if start >= 0 {
			runs = append(runs, Segment{Start: start, End: i})
			start = -1
		}
	}

	if start >= 0 {
		runs = append(runs, Segment{Start: start, End: segment.End})
	}

	return runs
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

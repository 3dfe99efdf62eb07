package coordinates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

var ErrUnsupportedOriginPolicy = errors.New("unsupported origin policy")

type OriginPolicy string

const (
	OriginPolicyFirst    OriginPolicy = "first"
	OriginPolicyCentroid OriginPolicy = "centroid"
	OriginPolicyMedian   OriginPolicy = "median"
)

func ParseOriginPolicy(s string) (OriginPolicy, error) {
	switch policy := OriginPolicy(strings.ToLower(s)); policy {
	case OriginPolicyFirst, OriginPolicyCentroid, OriginPolicyMedian:
		return policy, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedOriginPolicy, s)
}

// SelectOrigin picks one origin for a whole run. Missing altitudes count as 0.
// An empty sample set gives the zero origin.
func SelectOrigin(samples []ctdf.TrajectorySample, policy OriginPolicy) (ctdf.Origin, error) {
	if len(samples) == 0 {
		log.Warn().Msg("No trajectory samples to select an origin from, using (0, 0, 0)")
		return ctdf.Origin{}, nil
	}

	switch policy {
	case OriginPolicyFirst:
		first := samples[0]
		for _, sample := range samples[1:] {
			if sample.TimestampMs < first.TimestampMs || (sample.TimestampMs == first.TimestampMs && sample.VehicleID < first.VehicleID) {
				first = sample
			}
		}

		return ctdf.Origin{
			Latitude:  first.Latitude,
			Longitude: first.Longitude,
			Altitude:  first.AltitudeOrZero(),
		}, nil
	case OriginPolicyCentroid:
		latitudes, longitudes, altitudes := axes(samples)

		return ctdf.Origin{
			Latitude:  stat.Mean(latitudes, nil),
			Longitude: stat.Mean(longitudes, nil),
			Altitude:  stat.Mean(altitudes, nil),
		}, nil
	case OriginPolicyMedian:
		latitudes, longitudes, altitudes := axes(samples)

		return ctdf.Origin{
			Latitude:  median(latitudes),
			Longitude: median(longitudes),
			Altitude:  median(altitudes),
		}, nil
	default:
		return ctdf.Origin{}, fmt.Errorf("%w: %q", ErrUnsupportedOriginPolicy, policy)
	}
}

func axes(samples []ctdf.TrajectorySample) ([]float64, []float64, []float64) {
	latitudes := make([]float64, len(samples))
	longitudes := make([]float64, len(samples))
	altitudes := make([]float64, len(samples))

	for i, sample := range samples {
		latitudes[i] = sample.Latitude
		longitudes[i] = sample.Longitude
		altitudes[i] = sample.AltitudeOrZero()
	}

	return latitudes, longitudes, altitudes
}

// median averages the two middle values for even lengths. values is sorted in place.
func median(values []float64) float64 {
	slices.Sort(values)

	middle := len(values) / 2
	if len(values)%2 == 1 {
		return values[middle]
	}

	return (values[middle-1] + values[middle]) / 2
}

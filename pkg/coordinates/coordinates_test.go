package coordinates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

func sample(vehicleID string, timestampMs int64, lat float64, lon float64, alt *float64) ctdf.TrajectorySample {
	return ctdf.TrajectorySample{
		VehicleID:   vehicleID,
		TimestampMs: timestampMs,
		Latitude:    lat,
		Longitude:   lon,
		Altitude:    alt,
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestENUOriginIsZero(t *testing.T) {
	origin := ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839, Altitude: 180}

	east, north, up := GeodeticToENU(origin.Latitude, origin.Longitude, origin.Altitude, origin)

	assert.InDelta(t, 0, east, 1e-6)
	assert.InDelta(t, 0, north, 1e-6)
	assert.InDelta(t, 0, up, 1e-6)
}

func TestENUAxes(t *testing.T) {
	origin := ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839}

	// one thousandth of a degree north is roughly 111 m
	east, north, _ := GeodeticToENU(50.7763, 6.0839, 0, origin)
	assert.InDelta(t, 0, east, 0.01)
	assert.InDelta(t, 111.2, north, 0.5)

	// and east shrinks with cos(latitude)
	east, north, _ = GeodeticToENU(50.7753, 6.0849, 0, origin)
	assert.InDelta(t, 70.5, east, 0.5)
	assert.InDelta(t, 0, north, 0.01)
}

func TestZoneFor(t *testing.T) {
	assert.Equal(t, UTMZone{Number: 32, North: true}, ZoneFor(50.7753, 6.0839))
	assert.Equal(t, UTMZone{Number: 31, North: true}, ZoneFor(60.0, 5.9))
	assert.Equal(t, UTMZone{Number: 1, North: false}, ZoneFor(-33, -180))
	assert.Equal(t, UTMZone{Number: 60, North: true}, ZoneFor(0, 180))
	assert.Equal(t, "32N", ZoneFor(50, 6).String())
	assert.Equal(t, 32632, ZoneFor(50, 6).EPSG())
	assert.Equal(t, 32756, ZoneFor(-33.9, 151.2).EPSG())
}

func TestToUTMCentralMeridian(t *testing.T) {
	zone := UTMZone{Number: 31, North: true}

	easting, northing := ToUTM(0, 3, zone)
	assert.InDelta(t, 500000, easting, 1e-3)
	assert.InDelta(t, 0, northing, 1e-3)

	// meridian arc length to 45 degrees on WGS84 is 4984944.378 m
	easting, northing = ToUTM(45, 3, zone)
	assert.InDelta(t, 500000, easting, 1e-3)
	assert.InDelta(t, 0.9996*4984944.378, northing, 0.01)

	south := UTMZone{Number: 31, North: false}
	_, northing = ToUTM(-45, 3, south)
	assert.InDelta(t, 10000000-0.9996*4984944.378, northing, 0.01)
}

func TestToUTMSymmetry(t *testing.T) {
	zone := ZoneFor(50.7753, 6.0839)

	westEasting, westNorthing := ToUTM(50.7753, 8.5, zone)
	eastEasting, eastNorthing := ToUTM(50.7753, 9.5, zone)

	assert.InDelta(t, 500000-westEasting, eastEasting-500000, 1e-3)
	assert.InDelta(t, westNorthing, eastNorthing, 1e-3)
}

func TestToUTMForcedZone(t *testing.T) {
	// Aachen sits in 32N but is projected into its neighbour as well
	easting, northing := ToUTM(50.7753, 6.0839, UTMZone{Number: 32, North: true})
	assert.InDelta(t, 294409.403, easting, 0.05)
	assert.InDelta(t, 5628892.411, northing, 0.05)

	easting, northing = ToUTM(50.7753, 6.0839, UTMZone{Number: 31, North: true})
	assert.InDelta(t, 717418.593, easting, 0.05)
	assert.InDelta(t, 5629372.616, northing, 0.05)

	easting, northing = ToUTM(-33.8568, 151.2153, ZoneFor(-33.8568, 151.2153))
	assert.InDelta(t, 334900.570, easting, 0.05)
	assert.InDelta(t, 6252288.753, northing, 0.05)
}

func TestUTMAgreesWithENUOverShortDistances(t *testing.T) {
	origin := ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839}

	utm, err := NewTransformer(ModeUTM, origin, true)
	require.NoError(t, err)
	enu, err := NewTransformer(ModeENU, origin, false)
	require.NoError(t, err)

	x, y := utm.Project(origin.Latitude, origin.Longitude, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	ux, uy := utm.Project(50.7853, 6.0989, 0)
	ex, ey := enu.Project(50.7853, 6.0989, 0)

	utmDistance := ctdf.PlanarDistance(0, 0, ux, uy)
	enuDistance := ctdf.PlanarDistance(0, 0, ex, ey)
	assert.InEpsilon(t, enuDistance, utmDistance, 0.002)
}

func TestUTMAbsolute(t *testing.T) {
	origin := ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839}

	transformer, err := NewTransformer(ModeUTM, origin, false)
	require.NoError(t, err)

	x, y := transformer.Project(origin.Latitude, origin.Longitude, 0)
	assert.Greater(t, x, 200000.0)
	assert.Less(t, x, 500000.0)
	assert.Greater(t, y, 5600000.0)
	assert.Contains(t, transformer.CRS(), "EPSG:32632")
}

func TestSelectOrigin(t *testing.T) {
	samples := []ctdf.TrajectorySample{
		sample("b", 2000, 10, 20, ptr(30)),
		sample("a", 3000, 12, 22, nil),
		sample("c", 1000, 14, 30, ptr(60)),
		sample("a", 1000, 16, 24, ptr(90)),
	}

	first, err := SelectOrigin(samples, OriginPolicyFirst)
	require.NoError(t, err)
	assert.Equal(t, ctdf.Origin{Latitude: 16, Longitude: 24, Altitude: 90}, first)

	centroid, err := SelectOrigin(samples, OriginPolicyCentroid)
	require.NoError(t, err)
	assert.InDelta(t, 13, centroid.Latitude, 1e-9)
	assert.InDelta(t, 24, centroid.Longitude, 1e-9)
	assert.InDelta(t, 45, centroid.Altitude, 1e-9)

	median, err := SelectOrigin(samples, OriginPolicyMedian)
	require.NoError(t, err)
	assert.Equal(t, ctdf.Origin{Latitude: 13, Longitude: 23, Altitude: 45}, median)

	assert.Equal(t, 20.0, samples[0].Longitude, "selection must not reorder samples")
}

func TestSelectOriginEmpty(t *testing.T) {
	origin, err := SelectOrigin(nil, OriginPolicyCentroid)

	require.NoError(t, err)
	assert.Equal(t, ctdf.Origin{}, origin)
}

func TestSelectOriginUnknownPolicy(t *testing.T) {
	_, err := SelectOrigin([]ctdf.TrajectorySample{sample("a", 0, 1, 1, nil)}, OriginPolicy("mode"))
	assert.ErrorIs(t, err, ErrUnsupportedOriginPolicy)

	_, err = ParseOriginPolicy("weighted")
	assert.ErrorIs(t, err, ErrUnsupportedOriginPolicy)

	policy, err := ParseOriginPolicy("Median")
	require.NoError(t, err)
	assert.Equal(t, OriginPolicyMedian, policy)
}

func TestTransformCopyLeavesInputUntouched(t *testing.T) {
	samples := []ctdf.TrajectorySample{
		sample("a", 0, 50.7753, 6.0839, ptr(200)),
		sample("a", 1000, 50.7754, 6.0841, nil),
	}

	transformer, err := NewTransformer(ModeENU, ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839, Altitude: 200}, false)
	require.NoError(t, err)

	copied, err := transformer.Transform(samples, false)
	require.NoError(t, err)

	assert.Zero(t, samples[1].X)
	assert.NotZero(t, copied[1].X)
	assert.Equal(t, 200.0, *copied[0].Altitude)
	assert.Nil(t, copied[1].Altitude)

	*copied[0].Altitude = 1
	assert.Equal(t, 200.0, *samples[0].Altitude, "copies must not share altitude pointers")

	inPlace, err := transformer.Transform(samples, true)
	require.NoError(t, err)
	assert.Equal(t, copied[1].X, samples[1].X)
	assert.Equal(t, &samples[0], &inPlace[0])
}

func TestTransformAllSharesOneOrigin(t *testing.T) {
	trajectories := map[string][]ctdf.TrajectorySample{
		"a": {sample("a", 1000, 50.7753, 6.0839, nil), sample("a", 2000, 50.7760, 6.0845, nil)},
		"b": {sample("b", 500, 50.7800, 6.0900, nil)},
	}

	transformer, err := TransformAll(trajectories, ModeENU, OriginPolicyFirst, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 50.78, transformer.Origin.Latitude)
	assert.InDelta(t, 0, trajectories["b"][0].X, 1e-6)
	assert.InDelta(t, 0, trajectories["b"][0].Y, 1e-6)
	assert.Less(t, trajectories["a"][0].Y, 0.0)
	assert.Less(t, trajectories["a"][0].X, 0.0)

	// explicit origin wins over the policy
	explicit := ctdf.Origin{Latitude: 50.7753, Longitude: 6.0839}
	transformer, err = TransformAll(trajectories, ModeENU, OriginPolicyFirst, &explicit, true)
	require.NoError(t, err)
	assert.Equal(t, explicit, transformer.Origin)
	assert.InDelta(t, 0, trajectories["a"][0].X, 1e-6)
}

func TestTransformAllEmpty(t *testing.T) {
	transformer, err := TransformAll(map[string][]ctdf.TrajectorySample{}, ModeUTM, OriginPolicyCentroid, nil, true)

	require.NoError(t, err)
	assert.Equal(t, ctdf.Origin{}, transformer.Origin)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("UTM")
	require.NoError(t, err)
	assert.Equal(t, ModeUTM, mode)

	_, err = ParseMode("lambert")
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	_, err = NewTransformer(Mode("lambert"), ctdf.Origin{}, false)
	assert.ErrorIs(t, err, ErrUnsupportedMode)

}

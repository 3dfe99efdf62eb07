package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

func record(vehicleID string, lat float64, lon float64) ctdf.GnssRecord {
	return ctdf.GnssRecord{VehicleID: vehicleID, Latitude: lat, Longitude: lon}
}

func TestBoundingBox(t *testing.T) {
	bbox := NewBoundingBox([]float64{6.0, 50.7, 6.2, 50.8})

	assert.True(t, bbox.Contains(50.75, 6.1))
	assert.True(t, bbox.Contains(50.7, 6.0), "edges are inside")
	assert.False(t, bbox.Contains(50.85, 6.1))
	assert.False(t, bbox.Contains(50.75, 5.9))

	assert.Nil(t, NewBoundingBox(nil))
}

const squareWithHole = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {},
    "geometry": {
      "type": "Polygon",
      "coordinates": [
        [[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]],
        [[4, 4], [6, 4], [6, 6], [4, 6], [4, 4]]
      ]
    }
  }]
}`

func TestRegion(t *testing.T) {
	region, err := ParseRegion([]byte(squareWithHole))
	require.NoError(t, err)

	assert.True(t, region.Contains(1, 1))
	assert.True(t, region.Contains(9, 5))
	assert.False(t, region.Contains(5, 5), "inside the hole")
	assert.False(t, region.Contains(11, 5))
	assert.False(t, region.Contains(5, -1))
}

func TestRegionMultiPolygon(t *testing.T) {
	region, err := ParseRegion([]byte(`{"type": "MultiPolygon", "coordinates": [
		[[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]],
		[[[5, 5], [6, 5], [6, 6], [5, 6], [5, 5]]]
	]}`))
	require.NoError(t, err)

	assert.True(t, region.Contains(0.5, 0.5))
	assert.True(t, region.Contains(5.5, 5.5))
	assert.False(t, region.Contains(3, 3))
}

func TestRegionFeatureMultiPolygonWithHole(t *testing.T) {
	// Aachen-sized box in lon/lat order with a hole around the city centre
	region, err := ParseRegion([]byte(`{"type": "Feature", "properties": {"name": "aachen"}, "geometry": {
		"type": "MultiPolygon", "coordinates": [
			[[[6.0, 50.7], [6.2, 50.7], [6.2, 50.8], [6.0, 50.8], [6.0, 50.7]],
			 [[6.08, 50.77], [6.09, 50.77], [6.09, 50.78], [6.08, 50.78], [6.08, 50.77]]]
		]
	}}`))
	require.NoError(t, err)

	assert.True(t, region.Keep(&ctdf.GnssRecord{Latitude: 50.72, Longitude: 6.05}))
	assert.False(t, region.Keep(&ctdf.GnssRecord{Latitude: 50.775, Longitude: 6.085}), "inside the hole")
	assert.False(t, region.Keep(&ctdf.GnssRecord{Latitude: 6.05, Longitude: 50.72}), "swapped axes")
	assert.Equal(t, "polygon", region.Name())
}

func TestRegionRejectsOtherGeometry(t *testing.T) {
	_, err := ParseRegion([]byte(`{"type": "Point", "coordinates": [1, 2]}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = ParseRegion([]byte(`{"type": "FeatureCollection", "features": []}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = ParseRegion([]byte(`{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = ParseRegion([]byte(`not json`))
	assert.Error(t, err)
}

func TestExpression(t *testing.T) {
	expression, err := NewExpression(`has_speed && speed_mps > 0.5 && vehicle_id != "rsu_1"`)
	require.NoError(t, err)

	fast := record("car", 50, 6)
	speed := 3.0
	fast.Speed = &speed

	assert.True(t, expression.Keep(&fast))

	noSpeed := record("car", 50, 6)
	assert.False(t, expression.Keep(&noSpeed))

	rsu := fast
	rsu.VehicleID = "rsu_1"
	assert.False(t, expression.Keep(&rsu))

	_, err = NewExpression(`speed_mps +`)
	assert.Error(t, err)

	_, err = NewExpression(`speed_mps * 2`)
	assert.Error(t, err, "expressions must be boolean")
}

func TestApply(t *testing.T) {
	records := []ctdf.GnssRecord{
		record("a", 50.75, 6.1),
		record("b", 51.0, 6.1),
		record("c", 50.71, 6.05),
		record("d", 50.72, 6.19),
	}

	expression, err := NewExpression(`vehicle_id != "c"`)
	require.NoError(t, err)

	removed := Apply(&records, NewBoundingBox([]float64{6.0, 50.7, 6.2, 50.8}), expression)

	assert.Equal(t, 2, removed)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].VehicleID)
	assert.Equal(t, "d", records[1].VehicleID)
}

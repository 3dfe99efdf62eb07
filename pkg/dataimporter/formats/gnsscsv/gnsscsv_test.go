package gnsscsv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
)

func TestParseFile(t *testing.T) {
	body := strings.Join([]string{
		"vehicle_id,timestamp,latitude,longitude,altitude,speed,heading",
		"car-1,1678901234,50.78,6.06,180.5,4.2,90",
		"car-1,1678901235000,50.7801,6.0601,,,",
		",1678901236000,50.78,6.06",
		"car-1,not-a-time,50.78,6.06",
		"car-1,1678901237000",
	}, "\n")

	format := New(formats.Options{SourceFile: "gnss.csv"})
	require.NoError(t, format.ParseFile(strings.NewReader(body)))

	records := format.Records()
	require.Len(t, records.Gnss, 2)
	assert.Equal(t, 3, records.Skipped)

	first := records.Gnss[0]
	assert.Equal(t, "car-1", first.VehicleID)
	assert.Equal(t, int64(1678901234000), first.TimestampMs)
	require.NotNil(t, first.Altitude)
	assert.Equal(t, 180.5, *first.Altitude)
	require.NotNil(t, first.Heading)
	assert.Equal(t, 90.0, *first.Heading)
	assert.Equal(t, "gnss.csv", first.SourceFile)

	second := records.Gnss[1]
	assert.Equal(t, int64(1678901235000), second.TimestampMs)
	assert.Nil(t, second.Altitude)
	assert.Nil(t, second.Speed)
}

func TestParseFileGridReference(t *testing.T) {
	body := "vehicle_id,timestamp,easting,northing\nbus-9,1678901234000,651409,313177\n"

	format := New(formats.Options{})
	require.NoError(t, format.ParseFile(strings.NewReader(body)))

	records := format.Records()
	require.Len(t, records.Gnss, 1)
	assert.InDelta(t, 52.657, records.Gnss[0].Latitude, 0.01)
	assert.InDelta(t, 1.718, records.Gnss[0].Longitude, 0.01)
}

func TestParseFileLimit(t *testing.T) {
	body := "vehicle_id,timestamp,latitude,longitude\na,1,50,6\na,2,50,6\na,3,50,6\n"

	format := New(formats.Options{Limit: 1})
	require.NoError(t, format.ParseFile(strings.NewReader(body)))

	assert.Len(t, format.Records().Gnss, 1)
}

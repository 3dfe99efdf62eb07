package gtfsrt

import (
	"bytes"
	"testing"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"google.golang.org/protobuf/proto"
)

func vehicleEntity(id string, vehicleID string, timestamp uint64, latitude float32, longitude float32) *gtfs.FeedEntity {
	entity := &gtfs.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfs.VehiclePosition{
			Position: &gtfs.Position{
				Latitude:  proto.Float32(latitude),
				Longitude: proto.Float32(longitude),
			},
		},
	}
	if vehicleID != "" {
		entity.Vehicle.Vehicle = &gtfs.VehicleDescriptor{Id: proto.String(vehicleID)}
	}
	if timestamp != 0 {
		entity.Vehicle.Timestamp = proto.Uint64(timestamp)
	}

	return entity
}

func TestParseFile(t *testing.T) {
	withSpeed := vehicleEntity("e1", "bus-1", 1678901234, 50.5, 6.5)
	withSpeed.Vehicle.Position.Speed = proto.Float32(12.5)
	withSpeed.Vehicle.Position.Bearing = proto.Float32(180)

	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1678901300),
		},
		Entity: []*gtfs.FeedEntity{
			withSpeed,
			vehicleEntity("e2", "", 0, 51, 7),
			{Id: proto.String("alert"), Alert: &gtfs.Alert{}},
			{Id: proto.String("nowhere"), Vehicle: &gtfs.VehiclePosition{}},
		},
	}

	body, err := proto.Marshal(feed)
	require.NoError(t, err)

	format := New(formats.Options{SourceFile: "feed.pb"})
	require.NoError(t, format.ParseFile(bytes.NewReader(body)))

	records := format.Records()
	require.Len(t, records.Gnss, 2)
	assert.Equal(t, 1, records.Skipped)

	first := records.Gnss[0]
	assert.Equal(t, "bus-1", first.VehicleID)
	assert.Equal(t, int64(1678901234000), first.TimestampMs)
	assert.InDelta(t, 50.5, first.Latitude, 1e-6)
	require.NotNil(t, first.Speed)
	assert.InDelta(t, 12.5, *first.Speed, 1e-6)
	require.NotNil(t, first.Heading)
	assert.InDelta(t, 180, *first.Heading, 1e-6)

	second := records.Gnss[1]
	assert.Equal(t, "e2", second.VehicleID)
	assert.Equal(t, int64(1678901300000), second.TimestampMs)
	assert.Nil(t, second.Speed)
}

func TestParseFileRejectsGarbage(t *testing.T) {
	format := New(formats.Options{})

	assert.Error(t, format.ParseFile(bytes.NewReader([]byte{0xff, 0xff, 0xff})))
}

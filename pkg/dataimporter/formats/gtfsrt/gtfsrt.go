package gtfsrt

import (
	"fmt"
	"io"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"google.golang.org/protobuf/proto"
)

// GtfsRealtime turns the VehiclePosition entities of a GTFS-RT feed into GNSS records.
// Trip updates and alerts are ignored.
type GtfsRealtime struct {
	Options formats.Options

	records formats.Records
}

func New(options formats.Options) *GtfsRealtime {
	return &GtfsRealtime{Options: options}
}

func (g *GtfsRealtime) Records() formats.Records {
	return g.records
}

func (g *GtfsRealtime) ParseFile(reader io.Reader) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, &feed); err != nil {
		return fmt.Errorf("parsing GTFS-RT protobuf: %w", err)
	}

	headerTimestamp := feed.GetHeader().GetTimestamp()

	for _, entity := range feed.Entity {
		if g.Options.Limit > 0 && len(g.records.Gnss)+g.records.Skipped >= g.Options.Limit {
			break
		}

		vehiclePosition := entity.GetVehicle()
		if vehiclePosition == nil {
			continue
		}

		record, err := g.toRecord(entity, vehiclePosition, headerTimestamp)
		if err != nil {
			log.Debug().Err(err).Str("entity", entity.GetId()).Msg("Skipping vehicle position")
			g.records.Skipped++
			continue
		}

		g.records.Gnss = append(g.records.Gnss, *record)
	}

	return nil
}

func (g *GtfsRealtime) toRecord(entity *gtfs.FeedEntity, vehiclePosition *gtfs.VehiclePosition, headerTimestamp uint64) (*ctdf.GnssRecord, error) {
	position := vehiclePosition.GetPosition()
	if position == nil {
		return nil, fmt.Errorf("%w: position", formats.ErrMissingRequiredField)
	}

	vehicleID := vehiclePosition.GetVehicle().GetId()
	if vehicleID == "" {
		vehicleID = vehiclePosition.GetVehicle().GetLabel()
	}
	if vehicleID == "" {
		vehicleID = entity.GetId()
	}

	timestamp := vehiclePosition.GetTimestamp()
	if timestamp == 0 {
		timestamp = headerTimestamp
	}
	if timestamp == 0 {
		return nil, fmt.Errorf("%w: timestamp", formats.ErrMissingRequiredField)
	}

	// GTFS-RT timestamps are POSIX seconds
	record := &ctdf.GnssRecord{
		VehicleID:   vehicleID,
		TimestampMs: int64(timestamp) * 1000,
		Latitude:    float64(position.GetLatitude()),
		Longitude:   float64(position.GetLongitude()),
		SourceFile:  g.Options.SourceFile,
	}

	if position.Speed != nil {
		speed := float64(position.GetSpeed())
		record.Speed = &speed
	}
	if position.Bearing != nil {
		heading := float64(position.GetBearing())
		record.Heading = &heading
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

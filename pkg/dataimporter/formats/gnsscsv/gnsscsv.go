package gnsscsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/paulcager/osgridref"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"github.com/travigo/trajfusion/pkg/timestamps"
)

// Row is one line of a GNSS CSV export. Positions are either latitude/longitude or a
// British National Grid easting/northing pair.
type Row struct {
	VehicleID   string `csv:"vehicle_id"`
	Timestamp   string `csv:"timestamp"`
	Latitude    string `csv:"latitude"`
	Longitude   string `csv:"longitude"`
	Easting     string `csv:"easting"`
	Northing    string `csv:"northing"`
	Altitude    string `csv:"altitude"`
	Speed       string `csv:"speed"`
	Heading     string `csv:"heading"`
	StationID   string `csv:"station_id"`
	StationType string `csv:"station_type"`
}

type GnssCSV struct {
	Options formats.Options

	records formats.Records
}

func New(options formats.Options) *GnssCSV {
	return &GnssCSV{Options: options}
}

func (g *GnssCSV) Records() formats.Records {
	return g.records
}

func (g *GnssCSV) ParseFile(reader io.Reader) error {
	// Allow rows with missing trailing columns
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var rows []Row
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return err
	}

	for index, row := range rows {
		if g.Options.Limit > 0 && index >= g.Options.Limit {
			break
		}

		record, err := row.toRecord(g.Options)
		if err != nil {
			if errors.Is(err, timestamps.ErrInvalidTimestamp) {
				log.Warn().Err(err).Str("file", g.Options.SourceFile).Int("row", index+1).Msg("Skipping GNSS row")
			} else {
				log.Debug().Err(err).Str("file", g.Options.SourceFile).Int("row", index+1).Msg("Skipping GNSS row")
			}
			g.records.Skipped++
			continue
		}

		g.records.Gnss = append(g.records.Gnss, *record)
	}

	return nil
}

func (r *Row) toRecord(options formats.Options) (*ctdf.GnssRecord, error) {
	if r.VehicleID == "" {
		return nil, fmt.Errorf("%w: vehicle_id", formats.ErrMissingRequiredField)
	}
	if r.Timestamp == "" {
		return nil, fmt.Errorf("%w: timestamp", formats.ErrMissingRequiredField)
	}

	timestampMs, err := timestamps.Normalize(r.Timestamp, options.TimestampUnit)
	if err != nil {
		return nil, err
	}

	latitude, longitude, err := r.position()
	if err != nil {
		return nil, err
	}

	record := &ctdf.GnssRecord{
		VehicleID:   r.VehicleID,
		TimestampMs: timestampMs,
		Latitude:    latitude,
		Longitude:   longitude,
		Altitude:    optionalFloat(r.Altitude),
		Speed:       optionalFloat(r.Speed),
		Heading:     optionalFloat(r.Heading),
		StationID:   r.StationID,
		StationType: r.StationType,
		SourceFile:  options.SourceFile,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *Row) position() (float64, float64, error) {
	latitude := optionalFloat(r.Latitude)
	longitude := optionalFloat(r.Longitude)

	if latitude != nil && longitude != nil {
		return *latitude, *longitude, nil
	}

	if r.Easting != "" && r.Northing != "" {
		gridRef, err := osgridref.ParseOsGridRef(fmt.Sprintf("%s,%s", r.Easting, r.Northing))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: grid reference %s,%s", formats.ErrMissingRequiredField, r.Easting, r.Northing)
		}

		lat, lon := gridRef.ToLatLon()
		return lat, lon, nil
	}

	return 0, 0, fmt.Errorf("%w: position", formats.ErrMissingRequiredField)
}

func optionalFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}

	return &parsed
}

package ctdf

import (
	"errors"
	"fmt"
)

var ErrInvalidPosition = errors.New("position out of range")

// GnssRecord is a single timestamped position fix for one vehicle as produced by the
// importers. Timestamps are always milliseconds since the Unix epoch (UTC).
type GnssRecord struct {
	VehicleID   string `groups:"basic"`
	TimestampMs int64  `groups:"basic"`

	Latitude  float64  `groups:"basic"`
	Longitude float64  `groups:"basic"`
	Altitude  *float64 `groups:"basic"`
	Speed     *float64 `groups:"basic"`
	Heading   *float64 `groups:"basic"`

	StationID   string `groups:"detailed"`
	StationType string `groups:"detailed"`
	SourceFile  string `groups:"internal"`
}

func (r *GnssRecord) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f", ErrInvalidPosition, r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f", ErrInvalidPosition, r.Longitude)
	}

	return nil
}

func (r *GnssRecord) Location() Location {
	return NewPointLocation(r.Latitude, r.Longitude)
}

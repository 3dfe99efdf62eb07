package ctdf

import "time"

type Origin struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

type CoordinateSystem string

const (
	CoordinateSystemENU CoordinateSystem = "ENU"
	CoordinateSystemUTM CoordinateSystem = "UTM"
)

// DatasetMetadata describes how x/y in a run's output must be interpreted.
type DatasetMetadata struct {
	RunIdentifier    string
	CreationDateTime time.Time

	CRS              string
	CoordinateSystem CoordinateSystem
	Origin           Origin

	Hz              int
	GapThresholdS   float64
	SyncToleranceMs int64

	RoadsideUnits []RoadsideUnit `json:",omitempty"`

	DataSources []*DataSource `json:",omitempty"`
}

type RoadsideUnit struct {
	Identifier string
	Latitude   float64
	Longitude  float64
	Altitude   *float64 `json:",omitempty"`

	X float64
	Y float64
}

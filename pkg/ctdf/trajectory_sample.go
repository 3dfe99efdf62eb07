package ctdf

type QualityFlags struct {
	Gap          bool `groups:"basic"`
	Extrapolated bool `groups:"basic"`
	LowSpeed     bool `groups:"basic"`
}

// TrajectorySample is a single grid tick of a resampled vehicle trajectory.
// X and Y stay at 0 until a coordinate transform has been applied.
type TrajectorySample struct {
	VehicleID   string `groups:"basic"`
	TimestampMs int64  `groups:"basic"`

	Latitude  float64  `groups:"basic"`
	Longitude float64  `groups:"basic"`
	Altitude  *float64 `groups:"basic"`

	X float64 `groups:"basic"`
	Y float64 `groups:"basic"`

	Speed   *float64 `groups:"basic"`
	Heading *float64 `groups:"basic"`

	Quality QualityFlags `groups:"basic"`
}

func (s *TrajectorySample) Location() Location {
	return NewPointLocation(s.Latitude, s.Longitude)
}

// AltitudeOrZero is used wherever a missing altitude has to take part in a calculation.
func (s *TrajectorySample) AltitudeOrZero() float64 {
	if s.Altitude == nil {
		return 0
	}

	return *s.Altitude
}

package trajectory

import (
	"cmp"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"golang.org/x/exp/slices"
)

var ErrInsufficientData = errors.New("insufficient data")

const DefaultGapThresholdS = 5.0

type Config struct {
	Hz                   int
	GapThresholdS        float64
	SmoothingEnabled     bool
	SmoothingWindow      int
	SmoothingOrder       int
	LowSpeedThresholdMps float64
}

func DefaultConfig() Config {
	return Config{
		Hz:                   1,
		GapThresholdS:        DefaultGapThresholdS,
		SmoothingEnabled:     true,
		SmoothingWindow:      DefaultSmoothingWindow,
		SmoothingOrder:       DefaultSmoothingOrder,
		LowSpeedThresholdMps: DefaultLowSpeedThresholdMps,
	}
}

type Builder struct {
	config Config
	stepMs int64
}

func NewBuilder(config Config) *Builder {
	if config.Hz != 1 {
		log.Warn().Int("hz", config.Hz).Msg("Only 1 Hz output is supported, falling back to 1 Hz")
	}

	return &Builder{
		config: config,
		stepMs: DefaultStepMs,
	}
}

func (b *Builder) StepMs() int64 {
	return b.stepMs
}

// Build turns all GNSS fixes of one vehicle, in any order, into its resampled and
// quality annotated trajectory. The caller's slice is not modified.
func (b *Builder) Build(vehicleID string, records []ctdf.GnssRecord) []ctdf.TrajectorySample {
	logger := log.With().Str("vehicle", vehicleID).Logger()

	if len(records) == 0 {
		logger.Warn().Err(ErrInsufficientData).Msg("Vehicle has no GNSS records")
		return []ctdf.TrajectorySample{}
	}
	if len(records) < 2 {
		logger.Warn().Err(ErrInsufficientData).Int("records", len(records)).Msg("Too few GNSS records to detect gaps or resample")
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b ctdf.GnssRecord) int {
		return cmp.Compare(a.TimestampMs, b.TimestampMs)
	})

	n := len(sorted)
	timestamps := make([]int64, n)
	latitude := make(Channel, n)
	longitude := make(Channel, n)
	altitude := make([]*float64, n)
	speed := make([]*float64, n)
	heading := make([]*float64, n)

	for i, record := range sorted {
		timestamps[i] = record.TimestampMs
		latitude[i] = Some(record.Latitude)
		longitude[i] = Some(record.Longitude)
		altitude[i] = record.Altitude
		speed[i] = record.Speed
		heading[i] = record.Heading
	}

	altitudeChannel := ChannelFromPointers(altitude)

	gaps := DetectGaps(timestamps, b.config.GapThresholdS)
	if len(gaps) > 0 {
		logger.Debug().Int("gaps", len(gaps)).Msg("Detected gaps")
	}

	if b.config.SmoothingEnabled {
		latitude = b.smooth(logger, "latitude", latitude, gaps)
		longitude = b.smooth(logger, "longitude", longitude, gaps)

		if !altitudeChannel.AllMissing() {
			altitudeChannel = b.smooth(logger, "altitude", altitudeChannel, gaps)
		}
	}

	lat := Resample(timestamps, latitude, gaps, b.stepMs)
	lon := Resample(timestamps, longitude, gaps, b.stepMs)
	alt := Resample(timestamps, altitudeChannel, gaps, b.stepMs)
	spd := Resample(timestamps, ChannelFromPointers(speed), gaps, b.stepMs)
	hdg := Resample(timestamps, ChannelFromPointers(heading), gaps, b.stepMs)

	grid := lat.Timestamps
	extrapolated := make([]bool, len(grid))
	for k := range grid {
		extrapolated[k] = lat.Extrapolated[k] || lon.Extrapolated[k]
	}

	proximity := GapProximityMask(grid, timestamps, gaps, b.stepMs)
	flags := AnnotateQuality(proximity, extrapolated, spd.Values, b.config.LowSpeedThresholdMps)

	samples := make([]ctdf.TrajectorySample, 0, len(grid))
	for k, tick := range grid {
		if !lat.Values[k].Valid || !lon.Values[k].Valid {
			continue
		}

		samples = append(samples, ctdf.TrajectorySample{
			VehicleID:   vehicleID,
			TimestampMs: tick,
			Latitude:    lat.Values[k].V,
			Longitude:   lon.Values[k].V,
			Altitude:    alt.Values[k].Ptr(),
			Speed:       spd.Values[k].Ptr(),
			Heading:     hdg.Values[k].Ptr(),
			Quality:     flags[k],
		})
	}

	logger.Debug().Int("records", n).Int("grid", len(grid)).Int("samples", len(samples)).Msg("Built trajectory")

	return samples
}

func (b *Builder) smooth(logger zerolog.Logger, channelName string, channel Channel, gaps []Gap) Channel {
	smoothed, errs := SmoothSegments(channel, b.config.SmoothingWindow, b.config.SmoothingOrder, gaps)
	for _, err := range errs {
		logger.Warn().Err(err).Str("channel", channelName).Msg("Segment left unsmoothed")
	}

	return smoothed
}

package stats

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"gonum.org/v1/gonum/stat"
)

const adjacentTickMs = 1000

type RunStatistics struct {
	RunIdentifier    string
	CreationDateTime time.Time
	Duration         time.Duration

	Files       int
	FailedFiles int
	Vehicles    int

	GnssRecords     int
	V2XRecords      int
	SkippedRecords  int
	FilteredRecords int

	TrajectoryPoints int
	FusedRecords     int

	// DistanceM sums the planar distance between adjacent ticks of each vehicle
	DistanceM float64

	MessagesSent        int
	TotalBytes          int64
	AverageMessageBytes float64
	MeanLatencyMs       *float64

	GapTicks          int
	ExtrapolatedTicks int
	LowSpeedTicks     int

	MessageTypes map[string]int
}

// Calculate fills in everything derived from the run output. Input side counts (files,
// raw records) are set by the caller.
func (s *RunStatistics) Calculate(samples []ctdf.TrajectorySample, fused []ctdf.FusedRecord) {
	s.TrajectoryPoints = len(samples)
	s.FusedRecords = len(fused)
	s.MessageTypes = map[string]int{}

	vehicles := map[string]bool{}

	for i, sample := range samples {
		vehicles[sample.VehicleID] = true

		if i > 0 {
			previous := samples[i-1]
			if previous.VehicleID == sample.VehicleID && sample.TimestampMs-previous.TimestampMs <= adjacentTickMs {
				s.DistanceM += ctdf.PlanarDistance(previous.X, previous.Y, sample.X, sample.Y)
			}
		}

		if sample.Quality.Gap {
			s.GapTicks++
		}
		if sample.Quality.Extrapolated {
			s.ExtrapolatedTicks++
		}
		if sample.Quality.LowSpeed {
			s.LowSpeedTicks++
		}
	}
	s.Vehicles = len(vehicles)

	var latencies []float64
	var weights []float64

	for _, record := range fused {
		s.MessagesSent += record.MessagesSent
		s.TotalBytes += record.TotalBytes

		for msgType, count := range record.MsgCounts {
			s.MessageTypes[msgType] += count
		}

		// Each record's average is weighted by the number of messages behind it
		if record.AvgLatencyMs != nil {
			latencies = append(latencies, *record.AvgLatencyMs)
			weights = append(weights, float64(record.MessagesSent))
		}
	}

	if s.MessagesSent > 0 {
		s.AverageMessageBytes = float64(s.TotalBytes) / float64(s.MessagesSent)
	}

	if len(latencies) > 0 {
		meanLatency := stat.Mean(latencies, weights)
		s.MeanLatencyMs = &meanLatency
	}
}

func (s *RunStatistics) Log() {
	event := log.Info().
		Str("run", s.RunIdentifier).
		Int("files", s.Files).
		Int("failed_files", s.FailedFiles).
		Int("vehicles", s.Vehicles).
		Int("gnss_records", s.GnssRecords).
		Int("v2x_records", s.V2XRecords).
		Int("skipped_records", s.SkippedRecords).
		Int("filtered_records", s.FilteredRecords).
		Int("trajectory_points", s.TrajectoryPoints).
		Int("fused_records", s.FusedRecords).
		Int64("total_bytes", s.TotalBytes).
		Float64("avg_message_bytes", s.AverageMessageBytes).
		Float64("distance_m", s.DistanceM).
		Int("gap_ticks", s.GapTicks).
		Int("extrapolated_ticks", s.ExtrapolatedTicks).
		Int("low_speed_ticks", s.LowSpeedTicks).
		Dur("duration", s.Duration)

	if s.MeanLatencyMs != nil {
		event = event.Float64("mean_latency_ms", *s.MeanLatencyMs)
	}

	event.Msg("Run statistics")
}

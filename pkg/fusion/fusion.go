package fusion

import (
	"cmp"

	"github.com/travigo/trajfusion/pkg/ctdf"
	"golang.org/x/exp/slices"
)

const DefaultSyncToleranceMs int64 = 500

type timedEvent struct {
	timestampMs int64
	event       *ctdf.V2XEventRecord
}

// Fuse attributes V2X events to every trajectory tick whose closed window
// [T-tolerance, T+tolerance] contains the event's best timestamp. Windows of adjacent
// ticks overlap once the tolerance reaches half the tick spacing, such events are
// counted for each tick. Samples must be ascending, events may come in any order.
func Fuse(samples []ctdf.TrajectorySample, events []ctdf.V2XEventRecord, toleranceMs int64) []ctdf.FusedRecord {
	timed := make([]timedEvent, 0, len(events))
	for i := range events {
		if timestamp, ok := events[i].BestTimestamp(); ok {
			timed = append(timed, timedEvent{timestampMs: timestamp, event: &events[i]})
		}
	}

	slices.SortStableFunc(timed, func(a, b timedEvent) int {
		return cmp.Compare(a.timestampMs, b.timestampMs)
	})

	fused := make([]ctdf.FusedRecord, len(samples))
	lower := 0

	for i, sample := range samples {
		windowStart := sample.TimestampMs - toleranceMs
		windowEnd := sample.TimestampMs + toleranceMs

		for lower < len(timed) && timed[lower].timestampMs < windowStart {
			lower++
		}

		record := ctdf.FusedRecord{
			VehicleID:   sample.VehicleID,
			TimestampMs: sample.TimestampMs,
			X:           sample.X,
			Y:           sample.Y,
			MsgCounts:   map[string]int{},
			Quality:     sample.Quality,
		}

		var latencySum float64
		var latencyCount int

		for j := lower; j < len(timed) && timed[j].timestampMs <= windowEnd; j++ {
			event := timed[j].event

			record.MessagesSent++

			if event.PayloadBytes != nil {
				payload := *event.PayloadBytes
				record.TotalBytes += payload

				switch event.Direction {
				case ctdf.DirectionUplinkToRSU:
					record.TxBytes += payload
				case ctdf.DirectionDownlinkFromRSU:
					record.RxBytes += payload
				}
			}

			if event.MessageType != "" {
				record.MsgCounts[event.MessageType]++
			}

			if event.LatencyMs != nil {
				latencySum += *event.LatencyMs
				latencyCount++
			}
		}

		if latencyCount > 0 {
			average := latencySum / float64(latencyCount)
			record.AvgLatencyMs = &average
		}

		fused[i] = record
	}

	return fused
}

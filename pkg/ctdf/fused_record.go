package ctdf

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// FusedRecord joins a trajectory tick with the V2X activity observed in its
// synchronisation window. There is exactly one per TrajectorySample.
type FusedRecord struct {
	VehicleID   string `groups:"basic"`
	TimestampMs int64  `groups:"basic"`

	X float64 `groups:"basic"`
	Y float64 `groups:"basic"`

	MessagesSent int   `groups:"basic"`
	TotalBytes   int64 `groups:"basic"`
	TxBytes      int64 `groups:"basic"`
	RxBytes      int64 `groups:"basic"`

	MsgCounts    map[string]int `groups:"basic"`
	AvgLatencyMs *float64       `groups:"basic"`

	Quality QualityFlags `groups:"detailed"`
}

func (f *FusedRecord) Key() string {
	return fmt.Sprintf("%s:%d", f.VehicleID, f.TimestampMs)
}

// MessageTypes returns the sorted set of message types seen across records.
func MessageTypes(records []FusedRecord) []string {
	seen := map[string]bool{}
	var types []string

	for _, record := range records {
		for msgType := range record.MsgCounts {
			if !seen[msgType] {
				seen[msgType] = true
				types = append(types, msgType)
			}
		}
	}

	slices.Sort(types)

	return types
}

package ctdf

type Direction string

const (
	DirectionUplinkToRSU     Direction = "uplink_to_rsu"
	DirectionDownlinkFromRSU Direction = "downlink_from_rsu"
	DirectionV2V             Direction = "v2v"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUplinkToRSU, DirectionDownlinkFromRSU, DirectionV2V:
		return Direction(s), true
	}

	return "", false
}

// V2XEventRecord is one sent or received V2X message. At least one of the three
// timestamps is expected to be set but the importers do not enforce it.
type V2XEventRecord struct {
	VehicleID string `groups:"basic"`

	TimestampMs   *int64 `groups:"basic"`
	TxTimestampMs *int64 `groups:"basic"`
	RxTimestampMs *int64 `groups:"basic"`

	MessageType  string `groups:"basic"`
	PayloadBytes *int64 `groups:"basic"`
	FrameBytes   *int64 `groups:"detailed"`

	Direction Direction `groups:"basic"`
	RsuID     string    `groups:"detailed"`
	LatencyMs *float64  `groups:"basic"`

	StationID   string `groups:"detailed"`
	StationType string `groups:"detailed"`
	SourceFile  string `groups:"internal"`
}

// BestTimestamp prefers the generic timestamp, then tx, then rx.
func (r *V2XEventRecord) BestTimestamp() (int64, bool) {
	switch {
	case r.TimestampMs != nil:
		return *r.TimestampMs, true
	case r.TxTimestampMs != nil:
		return *r.TxTimestampMs, true
	case r.RxTimestampMs != nil:
		return *r.RxTimestampMs, true
	}

	return 0, false
}

// UpdateLatency sets LatencyMs from rx - tx when both are known.
func (r *V2XEventRecord) UpdateLatency() {
	if r.TxTimestampMs == nil || r.RxTimestampMs == nil {
		return
	}

	latency := float64(*r.RxTimestampMs - *r.TxTimestampMs)
	r.LatencyMs = &latency
}

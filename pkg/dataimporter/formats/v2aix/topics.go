package v2aix

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/util"
)

// A single station id must cover more than this share of CAM/DENM headers before it is
// taken as the recording vehicle
const dominantStationShare = 0.8

var stationTopics = []string{"/v2x/cam", "/v2x/denm"}

func isGnssTopic(topic string) bool {
	return strings.Contains(topic, "/gps") || strings.Contains(topic, "/gnss") || strings.Contains(topic, "/fix")
}

func isV2XTopic(topic string) bool {
	return strings.Contains(topic, "/v2x") || strings.Contains(topic, "/cam") || strings.Contains(topic, "/denm")
}

func (v *V2AIX) parseTopics(root object) {
	vehicleID := inferVehicleID(root)
	if vehicleID == "" {
		vehicleID = fileStem(v.Options.SourceFile)
		log.Debug().Str("file", v.Options.SourceFile).Str("vehicle", vehicleID).Msg("No dominant station id, using file name as vehicle id")
	}

	for _, topic := range util.SortedKeys(map[string]interface{}(root)) {
		if !strings.HasPrefix(topic, "/") {
			continue
		}

		entries, ok := root[topic].([]interface{})
		if !ok {
			continue
		}

		switch {
		case isGnssTopic(topic):
			for _, entry := range entries {
				if v.limitReached() {
					return
				}
				v.objects++
				v.parseGnssTopicEntry(entry, vehicleID)
			}
		case isV2XTopic(topic):
			for _, entry := range entries {
				if v.limitReached() {
					return
				}
				v.objects++
				v.parseV2XTopicEntry(entry)
			}
		default:
			log.Debug().Str("file", v.Options.SourceFile).Str("topic", topic).Msg("Ignoring topic")
		}
	}
}

func (v *V2AIX) parseGnssTopicEntry(entry interface{}, vehicleID string) {
	timestampMs, message, ok := topicEntry(entry)
	if !ok {
		v.records.Skipped++
		return
	}

	latitude, hasLatitude := message.float([]string{"latitude"})
	longitude, hasLongitude := message.float([]string{"longitude"})
	if !hasLatitude || !hasLongitude {
		log.Debug().Str("file", v.Options.SourceFile).Msg("Skipping GNSS topic entry without coordinates")
		v.records.Skipped++
		return
	}

	record := ctdf.GnssRecord{
		VehicleID:   vehicleID,
		TimestampMs: timestampMs,
		Latitude:    latitude,
		Longitude:   longitude,
		Altitude:    message.floatPointer([]string{"altitude"}),
		SourceFile:  v.Options.SourceFile,
	}
	if err := record.Validate(); err != nil {
		log.Debug().Err(err).Str("file", v.Options.SourceFile).Msg("Skipping GNSS topic entry")
		v.records.Skipped++
		return
	}

	v.records.Gnss = append(v.records.Gnss, record)
}

func (v *V2AIX) parseV2XTopicEntry(entry interface{}) {
	timestampMs, message, ok := topicEntry(entry)
	if !ok {
		v.records.Skipped++
		return
	}

	stationID := headerStationID(message)
	if stationID == "" {
		log.Debug().Str("file", v.Options.SourceFile).Msg("Skipping V2X topic entry without station id")
		v.records.Skipped++
		return
	}

	messageType := "UNKNOWN"
	if _, exists := message["cam"]; exists {
		messageType = "CAM"
	} else if _, exists := message["denm"]; exists {
		messageType = "DENM"
	}

	record := ctdf.V2XEventRecord{
		VehicleID:   stationID,
		TimestampMs: &timestampMs,
		MessageType: messageType,
		StationID:   stationID,
		RsuID:       receiverID(message, stationID),
		SourceFile:  v.Options.SourceFile,
	}

	// The recordings carry no size field, the encoded message stands in for it
	if encoded, err := json.Marshal(message); err == nil {
		size := int64(len(encoded))
		record.PayloadBytes = &size
	}

	v.records.V2X = append(v.records.V2X, record)
}

// topicEntry unwraps {"recording_timestamp_nsec": ..., "message": {...}}
func topicEntry(entry interface{}) (int64, object, bool) {
	raw, ok := entry.(map[string]interface{})
	if !ok {
		return 0, nil, false
	}
	wrapper := object(raw)

	nanoseconds := wrapper.int("recording_timestamp_nsec")
	if nanoseconds == nil {
		log.Debug().Msg("Skipping topic entry without recording timestamp")
		return 0, nil, false
	}

	message := wrapper.child("message")
	if message == nil {
		return 0, nil, false
	}

	return *nanoseconds / 1_000_000, message, true
}

func headerStationID(message object) string {
	header := message.child("header")
	if header == nil {
		return ""
	}
	station := header.child("station_id")
	if station == nil {
		return ""
	}

	value, _ := station.string([]string{"value"})
	return value
}

func receiverID(message object, senderID string) string {
	receiver := ""

	if header := message.child("header"); header != nil {
		if frameID, ok := header["frame_id"].(string); ok && frameID != "" && frameID != senderID {
			receiver = frameID
		}
	}

	switch address := message["address"].(type) {
	case string:
		if address != "" {
			receiver = address
		}
	case map[string]interface{}:
		if value, ok := object(address).string([]string{"value", "address"}); ok {
			receiver = value
		}
	}

	return receiver
}

// inferVehicleID returns the station id that dominates the CAM/DENM headers of a recording,
// or an empty string when the recording mixes several stations
func inferVehicleID(root object) string {
	counts := map[string]int{}
	total := 0

	for _, topic := range stationTopics {
		entries, ok := root[topic].([]interface{})
		if !ok {
			continue
		}

		for _, entry := range entries {
			raw, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			message := object(raw).child("message")
			if message == nil {
				continue
			}

			if stationID := headerStationID(message); stationID != "" {
				counts[stationID]++
				total++
			}
		}
	}

	if total == 0 {
		return ""
	}

	dominant := ""
	dominantCount := 0
	for _, stationID := range util.SortedKeys(counts) {
		if counts[stationID] > dominantCount {
			dominant = stationID
			dominantCount = counts[stationID]
		}
	}

	if float64(dominantCount)/float64(total) > dominantStationShare {
		return dominant
	}

	log.Debug().Int("stations", len(counts)).Msg("Multiple stations in recording")
	return ""
}

func fileStem(path string) string {
	if path == "" {
		return "unknown"
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

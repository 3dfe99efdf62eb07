package v2aix

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field name fallback chains across the vendor dialects we have seen
var (
	vehicleIDFields   = []string{"stationID", "station_id", "vehicleID", "vehicle_id", "id"}
	stationIDFields   = []string{"stationID", "station_id"}
	stationTypeFields = []string{"stationType", "station_type"}
	latitudeFields    = []string{"latitude", "lat", "latitude_deg"}
	longitudeFields   = []string{"longitude", "lon", "longitude_deg"}
	altitudeFields    = []string{"altitude", "alt", "altitude_m"}
	speedFields       = []string{"speed", "speed_mps", "speedMps"}
	headingFields     = []string{"heading", "heading_deg", "headingDeg"}
	messageTypeFields = []string{"messageType", "message_type", "msgType"}
	rsuIDFields       = []string{"rsu_id", "rsuID", "rsuId"}
	timestampFields   = []string{"timestamp", "timestamp_utc_ms"}
	txTimestampFields = []string{"tx_timestamp", "tx_timestamp_utc_ms"}
	rxTimestampFields = []string{"rx_timestamp", "rx_timestamp_utc_ms"}
)

type object map[string]interface{}

func (o object) first(keys []string) (interface{}, bool) {
	for _, key := range keys {
		if value, exists := o[key]; exists && value != nil {
			return value, true
		}
	}

	return nil, false
}

func (o object) has(keys ...string) bool {
	for _, key := range keys {
		if _, exists := o[key]; exists {
			return true
		}
	}

	return false
}

func (o object) string(keys []string) (string, bool) {
	value, ok := o.first(keys)
	if !ok {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprint(v), true
	}
}

func (o object) float(keys []string) (float64, bool) {
	value, ok := o.first(keys)
	if !ok {
		return 0, false
	}

	return toFloat(value)
}

func (o object) floatPointer(keys []string) *float64 {
	if value, ok := o.float(keys); ok {
		return &value
	}

	return nil
}

func (o object) int(key string) *int64 {
	value, ok := o.first([]string{key})
	if !ok {
		return nil
	}

	if number, isNumber := value.(json.Number); isNumber {
		if parsed, err := number.Int64(); err == nil {
			return &parsed
		}
	}

	if f, ok := toFloat(value); ok {
		parsed := int64(f)
		return &parsed
	}

	return nil
}

func (o object) child(key string) object {
	if value, ok := o[key].(map[string]interface{}); ok {
		return object(value)
	}

	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

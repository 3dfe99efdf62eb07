package timestamps

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

type Unit string

const (
	UnitSeconds      Unit = "seconds"
	UnitMilliseconds Unit = "milliseconds"
	UnitMicroseconds Unit = "microseconds"
)

const (
	secondsUpperBound      = 10_000_000_000
	millisecondsUpperBound = 10_000_000_000_000
)

// DetectUnit guesses the unit of an epoch timestamp from its magnitude.
func DetectUnit(value int64) Unit {
	if value < secondsUpperBound {
		return UnitSeconds
	} else if value < millisecondsUpperBound {
		return UnitMilliseconds
	}

	return UnitMicroseconds
}

// ToMilliseconds converts value into milliseconds since epoch. An empty unit means
// auto detect.
func ToMilliseconds(value int64, unit Unit) (int64, error) {
	if value < 0 {
		return 0, fmt.Errorf("%w: negative value %d", ErrInvalidTimestamp, value)
	}

	if unit == "" {
		unit = DetectUnit(value)
	}

	switch unit {
	case UnitSeconds:
		return value * 1000, nil
	case UnitMilliseconds:
		return value, nil
	case UnitMicroseconds:
		return value / 1000, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %s", ErrInvalidTimestamp, unit)
	}
}

// Normalize accepts the loosely typed values found in decoded JSON (numbers, numeric
// strings) and returns milliseconds since epoch.
func Normalize(raw interface{}, unit Unit) (int64, error) {
	var value int64

	switch v := raw.(type) {
	case int:
		value = int64(v)
	case int64:
		value = v
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows", ErrInvalidTimestamp, v)
		}
		value = int64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTimestamp, v)
		}
		value = int64(v)
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return ToMilliseconds(parsed, unit)
		}
		return Normalize(string(v), unit)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, v)
		}
		return Normalize(parsed, unit)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, raw)
	}

	return ToMilliseconds(value, unit)
}

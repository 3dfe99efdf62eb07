package timestamps

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectUnit(t *testing.T) {
	assert.Equal(t, UnitSeconds, DetectUnit(1678901234))
	assert.Equal(t, UnitMilliseconds, DetectUnit(1678901234000))
	assert.Equal(t, UnitMicroseconds, DetectUnit(1678901234000000))
	assert.Equal(t, UnitSeconds, DetectUnit(0))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		unit     Unit
		expected int64
	}{
		{"seconds", 1678901234, "", 1678901234000},
		{"milliseconds", int64(1678901234000), "", 1678901234000},
		{"microseconds", float64(1678901234000000), "", 1678901234000},
		{"numeric string", "1678901234", "", 1678901234000},
		{"explicit unit", int64(5), UnitMilliseconds, 5},
		{"fractional seconds truncate", 1678901234.9, "", 1678901234000},
		{"json number nanosecond precision", json.Number("1678901234567891"), "", 1678901234567},
		{"json number float", json.Number("1678901234.5"), "", 1678901234000},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ms, err := Normalize(test.raw, test.unit)
			require.NoError(t, err)
			assert.Equal(t, test.expected, ms)
		})
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []interface{}{"yesterday", true, nil, -5, []int{1}} {
		_, err := Normalize(raw, "")
		assert.True(t, errors.Is(err, ErrInvalidTimestamp), "value %v", raw)
	}

	_, err := ToMilliseconds(10, Unit("fortnights"))
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

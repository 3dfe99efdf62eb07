package util

import (
	"time"
)

func TimeFromMillis(timestampMs int64) time.Time {
	return time.UnixMilli(timestampMs).UTC()
}

package trajectory

// Gap marks two consecutive samples, Start and Start+1, whose spacing exceeds the
// gap threshold.
type Gap struct {
	Start int
	End   int
}

// DetectGaps expects ascending timestamps in milliseconds.
func DetectGaps(timestamps []int64, thresholdSeconds float64) []Gap {
	var gaps []Gap

	for i := 0; i+1 < len(timestamps); i++ {
		elapsed := float64(timestamps[i+1]-timestamps[i]) / 1000
		if elapsed > thresholdSeconds {
			gaps = append(gaps, Gap{Start: i, End: i + 1})
		}
	}

	return gaps
}

// Segment is a half open index range [Start, End) of samples not split by a gap.
type Segment struct {
	Start int
	End   int
}

func (s Segment) Len() int {
	return s.End - s.Start
}

// Segments splits n samples at every gap. The sample before a gap closes its segment
// and the sample after opens the next one.
func Segments(n int, gaps []Gap) []Segment {
	if n == 0 {
		return nil
	}

	segments := make([]Segment, 0, len(gaps)+1)
	start := 0

	for _, gap := range gaps {
		segments = append(segments, Segment{Start: start, End: gap.Start + 1})
		start = gap.End
	}

	return append(segments, Segment{Start: start, End: n})
}

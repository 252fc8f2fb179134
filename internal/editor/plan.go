package editor

// Segment is a half-open [Start, End) excerpt of the source, in seconds.
type Segment struct {
	Start float64 `json:"start_s"`
	End   float64 `json:"end_s"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// SegmentsAtMarks builds consecutive segments from sorted, validated marks:
// [0,m0), [m0,m1), ... with a trailing [mk, total) only when the last mark
// falls strictly before the end of the video. len(marks)+1 segments result
// unless the last mark equals total, then len(marks).
func SegmentsAtMarks(marks []float64, total float64) []Segment {
	segments := make([]Segment, 0, len(marks)+1)
	start := 0.0
	for _, m := range marks {
		segments = append(segments, Segment{Start: start, End: m})
		start = m
	}
	if start < total {
		segments = append(segments, Segment{Start: start, End: total})
	}
	return segments
}

// SegmentsByDuration slices [0, total) into ceil(total/chunk) pieces of the
// given length, the final one truncated at total. Segment lengths sum to
// total exactly.
func SegmentsByDuration(chunk, total float64) []Segment {
	var segments []Segment
	start := 0.0
	for start < total {
		end := start + chunk
		if end > total {
			end = total
		}
		segments = append(segments, Segment{Start: start, End: end})
		start = end
	}
	return segments
}

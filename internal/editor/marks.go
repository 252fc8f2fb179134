package editor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseMarks parses a comma-separated list of cut timestamps in seconds.
// Whitespace around tokens is tolerated; the result is sorted ascending, so
// "30,10" behaves identically to "10,30".
func ParseMarks(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("at least one mark is required: %w", ErrInvalidInput)
	}

	tokens := strings.Split(raw, ",")
	marks := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("empty mark in %q: %w", raw, ErrInvalidInput)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("mark %q is not a number (use comma-separated seconds, e.g. 10,25.5,60): %w", tok, ErrInvalidInput)
		}
		marks = append(marks, v)
	}

	sort.Float64s(marks)
	return marks, nil
}

// ValidateMarks checks sorted marks against the probed video duration.
// Marks must be positive, unique, and no greater than the total duration; a
// mark equal to the total is allowed and simply yields no trailing segment.
func ValidateMarks(marks []float64, total float64) error {
	for i, m := range marks {
		if m <= 0 {
			return fmt.Errorf("mark %g must be greater than zero: %w", m, ErrInvalidInput)
		}
		if m > total {
			return fmt.Errorf("mark %g exceeds video duration %.3fs: %w", m, total, ErrInvalidInput)
		}
		if i > 0 && marks[i-1] == m {
			return fmt.Errorf("duplicate mark %g: %w", m, ErrInvalidInput)
		}
	}
	return nil
}

// ParseChunkDuration parses the fixed chunk length for duration splitting.
func ParseChunkDuration(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("a duration is required: %w", ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q is not a number (use seconds, e.g. 30): %w", raw, ErrInvalidInput)
	}
	if v <= 0 {
		return 0, fmt.Errorf("duration must be greater than zero, got %g: %w", v, ErrInvalidInput)
	}
	return v, nil
}

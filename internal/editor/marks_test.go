package editor

import (
	"errors"
	"testing"
)

func TestParseMarks(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []float64
		wantErr bool
	}{
		{name: "single", raw: "10", want: []float64{10}},
		{name: "multiple", raw: "10,25.5,60", want: []float64{10, 25.5, 60}},
		{name: "out of order sorted", raw: "30,10", want: []float64{10, 30}},
		{name: "whitespace tolerated", raw: " 10 , 20 ", want: []float64{10, 20}},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "non numeric token", raw: "10,abc,30", wantErr: true},
		{name: "trailing comma", raw: "10,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMarks(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMarks(%q) expected error, got %v", tt.raw, got)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("error %v is not ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMarks(%q) error = %v", tt.raw, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseMarks(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseMarks(%q)[%d] = %v, want %v", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateMarks(t *testing.T) {
	tests := []struct {
		name    string
		marks   []float64
		total   float64
		wantErr bool
	}{
		{name: "in range", marks: []float64{10, 30, 60}, total: 90},
		{name: "mark equals total", marks: []float64{30, 90}, total: 90},
		{name: "mark exceeds total", marks: []float64{10, 95}, total: 90, wantErr: true},
		{name: "zero mark", marks: []float64{0, 10}, total: 90, wantErr: true},
		{name: "negative mark", marks: []float64{-5, 10}, total: 90, wantErr: true},
		{name: "duplicate mark", marks: []float64{10, 10, 30}, total: 90, wantErr: true},
		{name: "empty list ok here", marks: nil, total: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarks(tt.marks, tt.total)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("error %v is not ErrInvalidInput", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseChunkDuration(t *testing.T) {
	if got, err := ParseChunkDuration("40"); err != nil || got != 40 {
		t.Errorf("ParseChunkDuration(40) = %v, %v", got, err)
	}
	if got, err := ParseChunkDuration(" 2.5 "); err != nil || got != 2.5 {
		t.Errorf("ParseChunkDuration(2.5) = %v, %v", got, err)
	}

	for _, raw := range []string{"", "abc", "0", "-3"} {
		if _, err := ParseChunkDuration(raw); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseChunkDuration(%q) error = %v, want ErrInvalidInput", raw, err)
		}
	}
}

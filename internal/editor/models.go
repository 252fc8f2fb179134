// Package editor implements the three ClipForge operations: splitting a video
// at explicit marks, splitting into fixed-length chunks, and merging an
// ordered set of videos. Encoding is delegated to the ffmpeg package; job and
// clip records are persisted through Repository.
package editor

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput marks user-input failures (missing file, bad marks,
// non-positive duration). The API layer maps it to HTTP 400; everything else
// is an internal failure.
var ErrInvalidInput = errors.New("invalid input")

const (
	JobTypeSplitMarks    = "split_marks"
	JobTypeSplitDuration = "split_duration"
	JobTypeMerge         = "merge"

	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Input     string    `json:"input,omitempty"`
	Params    string    `json:"params,omitempty"`
	OutputDir string    `json:"output_dir,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Clip struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Index     int       `json:"index"`
	Path      string    `json:"path"`
	StartS    float64   `json:"start_s"`
	EndS      float64   `json:"end_s"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewID() string {
	return uuid.NewString()
}

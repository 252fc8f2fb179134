package api

import (
	"net/url"
	"time"

	"github.com/clipforge/clipforge/internal/editor"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeS    int64  `json:"uptime_s"`
	InstanceID string `json:"instance_id"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	JobsTotal   int          `json:"jobs_total"`
	JobsRunning int          `json:"jobs_running"`
	FFmpegOK    bool         `json:"ffmpeg_available"`
	ActiveJob   *JobResponse `json:"active_job,omitempty"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Input     string `json:"input,omitempty"`
	Params    string `json:"params,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ClipResponse struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	URL       string  `json:"url"`
	StartS    float64 `json:"start_s"`
	EndS      float64 `json:"end_s"`
	SizeBytes int64   `json:"size_bytes"`
}

type SplitResponse struct {
	JobID string         `json:"job_id"`
	Clips []ClipResponse `json:"clips"`
	Files []string       `json:"files"`
}

type MergeResponse struct {
	JobID  string       `json:"job_id"`
	Output ClipResponse `json:"output"`
}

type ClipsResponse struct {
	JobID string         `json:"job_id"`
	Clips []ClipResponse `json:"clips"`
	Files []string       `json:"files"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *editor.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Input:     j.Input,
		Params:    j.Params,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func ClipToResponse(c *editor.Clip) ClipResponse {
	return ClipResponse{
		ID:        c.ID,
		Index:     c.Index,
		Path:      c.Path,
		URL:       mediaURL(c.Path),
		StartS:    c.StartS,
		EndS:      c.EndS,
		SizeBytes: c.SizeBytes,
	}
}

func mediaURL(path string) string {
	return "/api/media?path=" + url.QueryEscape(path)
}

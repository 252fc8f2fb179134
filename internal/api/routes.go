package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge/internal/editor"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/split/marks", splitMarksHandler(cfg))
		r.Post("/split/duration", splitDurationHandler(cfg))
		r.Post("/merge", mergeHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/jobs/{id}/clips", jobClipsHandler(cfg))
		r.Get("/media", mediaHandler(cfg))
	})

	if cfg.UI != nil {
		r.Get("/", cfg.UI.ServeHTTP)
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Version:    cfg.Version,
			UptimeS:    uptime,
			InstanceID: cfg.InstanceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		total, _ := cfg.Repository.CountJobs(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		for _, j := range jobs {
			if j.Status == editor.JobStatusRunning {
				state = "busy"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == editor.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:       state,
			LastError:   lastError,
			JobsTotal:   total,
			JobsRunning: jobsRunning,
			FFmpegOK:    cfg.FFmpegOK,
			ActiveJob:   activeJob,
		})
	}
}

func splitMarksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseUploadForm(w, r, cfg.MaxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart request", "BAD_REQUEST")
			return
		}

		inputPath, cleanup, ok := intakeSingleVideo(w, r, cfg)
		if !ok {
			return
		}
		defer cleanup()

		result, err := cfg.Editor.SplitAtMarks(r.Context(), inputPath, r.FormValue("marks"))
		if err != nil {
			writeEditorError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, splitResponse(result))
	}
}

func splitDurationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseUploadForm(w, r, cfg.MaxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart request", "BAD_REQUEST")
			return
		}

		inputPath, cleanup, ok := intakeSingleVideo(w, r, cfg)
		if !ok {
			return
		}
		defer cleanup()

		result, err := cfg.Editor.SplitByDuration(r.Context(), inputPath, r.FormValue("duration"))
		if err != nil {
			writeEditorError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, splitResponse(result))
	}
}

func mergeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseUploadForm(w, r, cfg.MaxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart request", "BAD_REQUEST")
			return
		}

		headers := r.MultipartForm.File["videos"]
		if len(headers) == 0 {
			WriteError(w, http.StatusBadRequest, "at least one video file is required", "INVALID_INPUT")
			return
		}

		uploadDir := filepath.Join(cfg.UploadsDir, editor.NewID())
		cleanup := uploadCleanup(cfg, uploadDir)
		defer cleanup()

		inputs, err := saveUploads(headers, uploadDir)
		if err != nil {
			writeEditorError(w, err)
			return
		}

		result, err := cfg.Editor.Merge(r.Context(), inputs)
		if err != nil {
			writeEditorError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, MergeResponse{
			JobID:  result.Job.ID,
			Output: ClipToResponse(result.Clips[0]),
		})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func jobClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		clips, err := cfg.Repository.GetClipsByJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		// Listing is empty when outputs were removed from disk.
		files, err := editor.ListVideoFiles(job.OutputDir)
		if err != nil {
			files = nil
		}

		resp := ClipsResponse{JobID: id, Files: files, Clips: make([]ClipResponse, len(clips))}
		for i, c := range clips {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Media.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "path", path)
		}
	}
}

// intakeSingleVideo stores the "video" form file and returns its path and a
// cleanup func. A missing file is reported to the client here.
func intakeSingleVideo(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (string, func(), bool) {
	_, fh, err := r.FormFile("video")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "a video file is required", "INVALID_INPUT")
		return "", nil, false
	}

	uploadDir := filepath.Join(cfg.UploadsDir, editor.NewID())
	cleanup := uploadCleanup(cfg, uploadDir)

	inputPath, err := saveUpload(fh, uploadDir)
	if err != nil {
		cleanup()
		writeEditorError(w, err)
		return "", nil, false
	}
	return inputPath, cleanup, true
}

func uploadCleanup(cfg ServerConfig, uploadDir string) func() {
	return func() {
		if cfg.KeepUploads {
			return
		}
		if err := os.RemoveAll(uploadDir); err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("failed to remove upload dir", "dir", uploadDir, "error", err)
		}
	}
}

func splitResponse(result *editor.Result) SplitResponse {
	resp := SplitResponse{
		JobID: result.Job.ID,
		Files: result.Files,
		Clips: make([]ClipResponse, len(result.Clips)),
	}
	for i, c := range result.Clips {
		resp.Clips[i] = ClipToResponse(c)
	}
	return resp
}

func writeEditorError(w http.ResponseWriter, err error) {
	if errors.Is(err, editor.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error(), "EDIT_FAILED")
}

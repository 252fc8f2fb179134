package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipforge/clipforge/internal/editor"
	"github.com/clipforge/clipforge/internal/stream"
)

type fakeEditor struct {
	result *editor.Result
	err    error

	gotInput    string
	gotMarks    string
	gotDuration string
	gotMerge    []string
}

func (f *fakeEditor) SplitAtMarks(ctx context.Context, inputPath, marksRaw string) (*editor.Result, error) {
	f.gotInput = inputPath
	f.gotMarks = marksRaw
	return f.result, f.err
}

func (f *fakeEditor) SplitByDuration(ctx context.Context, inputPath, durationRaw string) (*editor.Result, error) {
	f.gotInput = inputPath
	f.gotDuration = durationRaw
	return f.result, f.err
}

func (f *fakeEditor) Merge(ctx context.Context, inputPaths []string) (*editor.Result, error) {
	f.gotMerge = inputPaths
	return f.result, f.err
}

type fakeRepo struct {
	jobs    []*editor.Job
	clips   map[string][]*editor.Clip
	config  map[string]string
	listErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{clips: map[string][]*editor.Clip{}, config: map[string]string{}}
}

func (r *fakeRepo) CreateJob(ctx context.Context, job *editor.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *fakeRepo) GetJob(ctx context.Context, id string) (*editor.Job, error) {
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListJobs(ctx context.Context, limit int) ([]*editor.Job, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if len(r.jobs) > limit {
		return r.jobs[:limit], nil
	}
	return r.jobs, nil
}

func (r *fakeRepo) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	for _, j := range r.jobs {
		if j.ID == id {
			j.Status = status
			j.Error = errorMsg
		}
	}
	return nil
}

func (r *fakeRepo) CountJobs(ctx context.Context) (int, error) { return len(r.jobs), nil }

func (r *fakeRepo) CreateClip(ctx context.Context, clip *editor.Clip) error {
	r.clips[clip.JobID] = append(r.clips[clip.JobID], clip)
	return nil
}

func (r *fakeRepo) GetClipsByJob(ctx context.Context, jobID string) ([]*editor.Clip, error) {
	return r.clips[jobID], nil
}

func (r *fakeRepo) GetConfig(ctx context.Context, key string) (string, error) {
	return r.config[key], nil
}

func (r *fakeRepo) SetConfig(ctx context.Context, key, value string) error {
	r.config[key] = value
	return nil
}

func testConfig(t *testing.T, ed editor.EditService, repo editor.Repository) ServerConfig {
	t.Helper()
	uploads := t.TempDir()
	return ServerConfig{
		Port:           0,
		Editor:         ed,
		Repository:     repo,
		Media:          stream.NewServer(nil, uploads),
		UploadsDir:     uploads,
		MaxUploadBytes: 1 << 20,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		StartTime:      time.Now(),
		InstanceID:     "test-instance",
		Version:        "test",
	}
}

func splitResult() *editor.Result {
	job := &editor.Job{ID: "job-1", Type: editor.JobTypeSplitMarks, Status: editor.JobStatusCompleted}
	return &editor.Result{
		Job: job,
		Clips: []*editor.Clip{
			{ID: "c0", JobID: "job-1", Index: 0, Path: "/out/clip_000.mp4", StartS: 0, EndS: 10},
			{ID: "c1", JobID: "job-1", Index: 1, Path: "/out/clip_001.mp4", StartS: 10, EndS: 30},
		},
		Files: []string{"/out/clip_000.mp4", "/out/clip_001.mp4"},
	}
}

func multipartBody(t *testing.T, fileField, fileName string, fields map[string]string, extraFiles ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if fileName != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("fake video bytes"))
	}
	for _, extra := range extraFiles {
		fw, err := mw.CreateFormFile(fileField, extra)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("more fake bytes"))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestSplitMarksHandler(t *testing.T) {
	ed := &fakeEditor{result: splitResult()}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "in.mp4", map[string]string{"marks": "10,30"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/marks", body)
	req.Header.Set("Content-Type", contentType)

	splitMarksHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ed.gotMarks != "10,30" {
		t.Errorf("marks passed = %q, want 10,30", ed.gotMarks)
	}
	if filepath.Base(ed.gotInput) != "in.mp4" {
		t.Errorf("input path = %q, want saved upload named in.mp4", ed.gotInput)
	}

	resp := decodeJSONBody(t, rr)
	if resp["job_id"] != "job-1" {
		t.Errorf("job_id = %v", resp["job_id"])
	}
	clips, ok := resp["clips"].([]interface{})
	if !ok || len(clips) != 2 {
		t.Errorf("clips = %v, want 2 entries", resp["clips"])
	}
}

func TestSplitMarksHandler_RemovesUpload(t *testing.T) {
	ed := &fakeEditor{result: splitResult()}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "in.mp4", map[string]string{"marks": "10"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/marks", body)
	req.Header.Set("Content-Type", contentType)

	splitMarksHandler(cfg).ServeHTTP(rr, req)

	entries, err := os.ReadDir(cfg.UploadsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("uploads dir has %d entries after request, want 0", len(entries))
	}
}

func TestSplitMarksHandler_MissingFile(t *testing.T) {
	ed := &fakeEditor{result: splitResult()}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "", map[string]string{"marks": "10,30"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/marks", body)
	req.Header.Set("Content-Type", contentType)

	splitMarksHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ed.gotMarks != "" {
		t.Error("editor called despite missing file")
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "INVALID_INPUT" {
		t.Errorf("code = %v, want INVALID_INPUT", code)
	}
}

func TestSplitMarksHandler_InvalidInputMapsTo400(t *testing.T) {
	ed := &fakeEditor{err: editor.ErrInvalidInput}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "in.mp4", map[string]string{"marks": "bogus"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/marks", body)
	req.Header.Set("Content-Type", contentType)

	splitMarksHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSplitMarksHandler_EncodeFailureMapsTo500(t *testing.T) {
	ed := &fakeEditor{err: os.ErrDeadlineExceeded}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "in.mp4", map[string]string{"marks": "10"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/marks", body)
	req.Header.Set("Content-Type", contentType)

	splitMarksHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "EDIT_FAILED" {
		t.Errorf("code = %v, want EDIT_FAILED", code)
	}
}

func TestSplitDurationHandler(t *testing.T) {
	ed := &fakeEditor{result: splitResult()}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "video", "in.mp4", map[string]string{"duration": "40"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/split/duration", body)
	req.Header.Set("Content-Type", contentType)

	splitDurationHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ed.gotDuration != "40" {
		t.Errorf("duration passed = %q, want 40", ed.gotDuration)
	}
}

func TestMergeHandler_PreservesOrder(t *testing.T) {
	res := splitResult()
	res.Clips = res.Clips[:1]
	ed := &fakeEditor{result: res}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "videos", "first.mp4", nil, "second.mp4", "third.mp4")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/merge", body)
	req.Header.Set("Content-Type", contentType)

	mergeHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(ed.gotMerge) != 3 {
		t.Fatalf("merge got %d inputs, want 3", len(ed.gotMerge))
	}
	wantOrder := []string{"first.mp4", "second.mp4", "third.mp4"}
	for i, p := range ed.gotMerge {
		if filepath.Base(p) != wantOrder[i] {
			t.Errorf("merge input %d = %q, want %q", i, filepath.Base(p), wantOrder[i])
		}
	}
}

func TestMergeHandler_NoFiles(t *testing.T) {
	ed := &fakeEditor{}
	cfg := testConfig(t, ed, newFakeRepo())

	body, contentType := multipartBody(t, "videos", "", map[string]string{"unused": "x"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/merge", body)
	req.Header.Set("Content-Type", contentType)

	mergeHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ed.gotMerge != nil {
		t.Error("editor called despite empty file list")
	}
}

func TestHealthHandler(t *testing.T) {
	cfg := testConfig(t, &fakeEditor{}, newFakeRepo())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	healthHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" || body["instance_id"] != "test-instance" {
		t.Errorf("body = %v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	repo.jobs = []*editor.Job{
		{ID: "j1", Type: editor.JobTypeMerge, Status: editor.JobStatusFailed, Error: "concat: boom", CreatedAt: now, UpdatedAt: now},
		{ID: "j2", Type: editor.JobTypeSplitMarks, Status: editor.JobStatusCompleted, CreatedAt: now, UpdatedAt: now},
	}
	cfg := testConfig(t, &fakeEditor{}, repo)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)

	statusHandler(cfg).ServeHTTP(rr, req)

	body := decodeJSONBody(t, rr)
	if body["state"] != "error" {
		t.Errorf("state = %v, want error", body["state"])
	}
	if body["last_error"] != "concat: boom" {
		t.Errorf("last_error = %v", body["last_error"])
	}
	if body["jobs_total"].(float64) != 2 {
		t.Errorf("jobs_total = %v, want 2", body["jobs_total"])
	}
}

func TestGetJobHandler_NotFound(t *testing.T) {
	cfg := testConfig(t, &fakeEditor{}, newFakeRepo())

	r := NewRouter(cfg)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestJobClipsHandler(t *testing.T) {
	repo := newFakeRepo()
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "clip_000.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	repo.jobs = []*editor.Job{{ID: "j1", Type: editor.JobTypeSplitMarks, Status: editor.JobStatusCompleted, OutputDir: outDir, CreatedAt: now, UpdatedAt: now}}
	repo.clips["j1"] = []*editor.Clip{{ID: "c1", JobID: "j1", Index: 0, Path: filepath.Join(outDir, "clip_000.mp4"), EndS: 10}}

	cfg := testConfig(t, &fakeEditor{}, repo)
	r := NewRouter(cfg)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/j1/clips", nil)

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	files, ok := body["files"].([]interface{})
	if !ok || len(files) != 1 {
		t.Errorf("files = %v, want 1 entry", body["files"])
	}
}

func TestMediaHandler_MissingPath(t *testing.T) {
	cfg := testConfig(t, &fakeEditor{}, newFakeRepo())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestMediaHandler_OutsideRootForbidden(t *testing.T) {
	cfg := testConfig(t, &fakeEditor{}, newFakeRepo())

	outside := filepath.Join(t.TempDir(), "secret.mp4")
	if err := os.WriteFile(outside, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/media?path="+outside, nil)

	mediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

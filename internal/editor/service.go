package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipforge/internal/ffmpeg"
)

// EditService is the operation surface the API layer calls. Each call is
// synchronous: it returns once every output file is written (or nothing on
// failure).
type EditService interface {
	SplitAtMarks(ctx context.Context, inputPath, marksRaw string) (*Result, error)
	SplitByDuration(ctx context.Context, inputPath, durationRaw string) (*Result, error)
	Merge(ctx context.Context, inputPaths []string) (*Result, error)
}

// Result carries the persisted job, its clip records, and the run
// directory's video-file listing.
type Result struct {
	Job   *Job
	Clips []*Clip
	Files []string
}

type Service struct {
	repo          Repository
	ffm           ffmpeg.FFmpeg
	outputsDir    string
	encodeTimeout time.Duration
	logger        *slog.Logger
}

func NewService(repo Repository, ffm ffmpeg.FFmpeg, outputsDir string, encodeTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		ffm:           ffm,
		outputsDir:    outputsDir,
		encodeTimeout: encodeTimeout,
		logger:        logger,
	}
}

func (s *Service) SplitAtMarks(ctx context.Context, inputPath, marksRaw string) (*Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("a video file is required: %w", ErrInvalidInput)
	}
	marks, err := ParseMarks(marksRaw)
	if err != nil {
		return nil, err
	}

	job, err := s.beginJob(ctx, JobTypeSplitMarks, inputPath, marksRaw)
	if err != nil {
		return nil, err
	}

	probe, err := s.ffm.Probe(ctx, inputPath)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("probe input: %w", err))
	}
	s.logProbe(job, probe)
	if err := ValidateMarks(marks, probe.Duration); err != nil {
		return nil, s.failJob(ctx, job, err)
	}

	return s.writeSegments(ctx, job, inputPath, SegmentsAtMarks(marks, probe.Duration))
}

func (s *Service) SplitByDuration(ctx context.Context, inputPath, durationRaw string) (*Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("a video file is required: %w", ErrInvalidInput)
	}
	chunk, err := ParseChunkDuration(durationRaw)
	if err != nil {
		return nil, err
	}

	job, err := s.beginJob(ctx, JobTypeSplitDuration, inputPath, durationRaw)
	if err != nil {
		return nil, err
	}

	probe, err := s.ffm.Probe(ctx, inputPath)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("probe input: %w", err))
	}
	s.logProbe(job, probe)

	return s.writeSegments(ctx, job, inputPath, SegmentsByDuration(chunk, probe.Duration))
}

func (s *Service) Merge(ctx context.Context, inputPaths []string) (*Result, error) {
	if len(inputPaths) == 0 {
		return nil, fmt.Errorf("at least one video file is required: %w", ErrInvalidInput)
	}
	for _, p := range inputPaths {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("empty video path in merge list: %w", ErrInvalidInput)
		}
	}

	job, err := s.beginJob(ctx, JobTypeMerge, strings.Join(baseNames(inputPaths), ","), fmt.Sprintf("%d files", len(inputPaths)))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("create run dir: %w", err))
	}

	outPath := filepath.Join(job.OutputDir, MergedName)
	encCtx, cancel := context.WithTimeout(ctx, s.encodeTimeout)
	err = s.ffm.Concat(encCtx, inputPaths, outPath)
	cancel()
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("concat: %w", err))
	}

	// Merge duration is whatever ffmpeg produced; inputs are not inspected.
	end := 0.0
	if probe, err := s.ffm.Probe(ctx, outPath); err == nil {
		end = probe.Duration
	}

	clip := &Clip{
		ID:        NewID(),
		JobID:     job.ID,
		Index:     0,
		Path:      outPath,
		StartS:    0,
		EndS:      end,
		SizeBytes: fileSize(outPath),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateClip(ctx, clip); err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("record clip: %w", err))
	}

	return s.completeJob(ctx, job, []*Clip{clip})
}

// writeSegments encodes one output per segment into the job's run directory
// and records a clip row per output.
func (s *Service) writeSegments(ctx context.Context, job *Job, inputPath string, segments []Segment) (*Result, error) {
	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("create run dir: %w", err))
	}

	clips := make([]*Clip, 0, len(segments))
	for i, seg := range segments {
		outPath := filepath.Join(job.OutputDir, ClipName(i))

		encCtx, cancel := context.WithTimeout(ctx, s.encodeTimeout)
		err := s.ffm.Cut(encCtx, inputPath, outPath, seg.Start, seg.End)
		cancel()
		if err != nil {
			return nil, s.failJob(ctx, job, fmt.Errorf("cut segment %d [%.3f, %.3f): %w", i, seg.Start, seg.End, err))
		}

		clip := &Clip{
			ID:        NewID(),
			JobID:     job.ID,
			Index:     i,
			Path:      outPath,
			StartS:    seg.Start,
			EndS:      seg.End,
			SizeBytes: fileSize(outPath),
			CreatedAt: time.Now(),
		}
		if err := s.repo.CreateClip(ctx, clip); err != nil {
			return nil, s.failJob(ctx, job, fmt.Errorf("record clip %d: %w", i, err))
		}
		clips = append(clips, clip)
	}

	return s.completeJob(ctx, job, clips)
}

func (s *Service) beginJob(ctx context.Context, jobType, input, params string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusRunning,
		Input:     filepath.Base(input),
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if jobType == JobTypeMerge {
		job.Input = input
	}
	job.OutputDir = filepath.Join(s.outputsDir, job.ID)

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("job started", "job_id", job.ID, "type", jobType, "input", job.Input)
	}
	return job, nil
}

// failJob records the failure and removes any partially written outputs, so
// a failed operation leaves no files behind.
func (s *Service) failJob(ctx context.Context, job *Job, cause error) error {
	if err := s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, cause.Error()); err != nil && s.logger != nil {
		s.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
	}
	if job.OutputDir != "" {
		if err := os.RemoveAll(job.OutputDir); err != nil && s.logger != nil {
			s.logger.Warn("failed to clean up run dir", "job_id", job.ID, "error", err)
		}
	}
	if s.logger != nil {
		s.logger.Error("job failed", "job_id", job.ID, "type", job.Type, "error", cause)
	}
	return cause
}

func (s *Service) completeJob(ctx context.Context, job *Job, clips []*Clip) (*Result, error) {
	if err := s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("mark job completed: %w", err)
	}
	job.Status = JobStatusCompleted
	job.UpdatedAt = time.Now()

	files, err := ListVideoFiles(job.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("job completed", "job_id", job.ID, "type", job.Type, "clips", len(clips))
	}
	return &Result{Job: job, Clips: clips, Files: files}, nil
}

func (s *Service) logProbe(job *Job, probe *ffmpeg.ProbeResult) {
	if s.logger == nil {
		return
	}
	s.logger.Info("input probed",
		"job_id", job.ID,
		"duration_s", probe.Duration,
		"video_codec", probe.VideoCodec,
		"audio_codec", probe.AudioCodec,
		"width", probe.Width,
		"height", probe.Height,
		"frame_rate", probe.FrameRate,
	)
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

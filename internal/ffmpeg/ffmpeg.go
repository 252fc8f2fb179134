// Package ffmpeg wraps the ffmpeg and ffprobe executables behind a small
// interface so the editing service can be tested without media files.
package ffmpeg

import (
	"context"
	"log/slog"
)

type FFmpeg interface {
	// Probe inspects a media file and returns container/stream metadata.
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	// Cut re-encodes the [start, end) window of in into out (H.264/AAC).
	Cut(ctx context.Context, in, out string, start, end float64) error
	// Concat joins inputs end-to-end, in order, into out (H.264/AAC).
	Concat(ctx context.Context, inputs []string, out string) error
}

type ProbeResult struct {
	Duration   float64
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	FrameRate  float64
}

// Stub records calls instead of spawning processes. Tests configure the
// duration returned by Probe and inspect the recorded cuts/concats.
type Stub struct {
	logger *slog.Logger

	ProbeDuration float64
	ProbeErr      error
	CutErr        error
	ConcatErr     error

	Cuts    []StubCut
	Concats []StubConcat
}

type StubCut struct {
	In, Out    string
	Start, End float64
}

type StubConcat struct {
	Inputs []string
	Out    string
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if s.ProbeErr != nil {
		return nil, s.ProbeErr
	}
	return &ProbeResult{Duration: s.ProbeDuration, VideoCodec: "h264", AudioCodec: "aac"}, nil
}

func (s *Stub) Cut(ctx context.Context, in, out string, start, end float64) error {
	if s.CutErr != nil {
		return s.CutErr
	}
	s.Cuts = append(s.Cuts, StubCut{In: in, Out: out, Start: start, End: end})
	if s.logger != nil {
		s.logger.Debug("ffmpeg stub: cut", "in", in, "out", out, "start", start, "end", end)
	}
	return touch(out)
}

func (s *Stub) Concat(ctx context.Context, inputs []string, out string) error {
	if s.ConcatErr != nil {
		return s.ConcatErr
	}
	s.Concats = append(s.Concats, StubConcat{Inputs: append([]string(nil), inputs...), Out: out})
	if s.logger != nil {
		s.logger.Debug("ffmpeg stub: concat", "inputs", len(inputs), "out", out)
	}
	return touch(out)
}

package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Exec runs the real ffmpeg/ffprobe binaries.
type Exec struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

func NewExec(ffmpegPath, ffprobePath string, logger *slog.Logger) *Exec {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Exec{ffmpeg: ffmpegPath, ffprobe: ffprobePath, logger: logger}
}

// Available reports whether both binaries resolve on PATH.
func (e *Exec) Available() bool {
	if _, err := exec.LookPath(e.ffmpeg); err != nil {
		return false
	}
	if _, err := exec.LookPath(e.ffprobe); err != nil {
		return false
	}
	return true
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

func (e *Exec) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w%s", filepath.Base(path), err, stderrOf(err))
	}

	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	result.Duration, err = strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.VideoCodec == "" {
				result.VideoCodec = s.CodecName
				result.Width = s.Width
				result.Height = s.Height
				result.FrameRate = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}

	return result, nil
}

func (e *Exec) Cut(ctx context.Context, in, out string, start, end float64) error {
	args := cutArgs(in, out, start, end)
	if e.logger != nil {
		e.logger.Debug("ffmpeg cut", "in", in, "out", out, "start", start, "end", end)
	}
	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg cut %s: %w\n%s", filepath.Base(in), err, tail(b))
	}
	return nil
}

func (e *Exec) Concat(ctx context.Context, inputs []string, out string) error {
	listFile, err := writeConcatList(inputs)
	if err != nil {
		return err
	}
	defer os.Remove(listFile)

	args := concatArgs(listFile, out)
	if e.logger != nil {
		e.logger.Debug("ffmpeg concat", "inputs", len(inputs), "out", out)
	}
	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, tail(b))
	}
	return nil
}

// All outputs use the fixed H.264/AAC contract regardless of the input
// container, so segments and merges from mixed sources stay playable.
func encodeArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
	}
}

func cutArgs(in, out string, start, end float64) []string {
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", in,
	}
	args = append(args, encodeArgs()...)
	return append(args, out)
}

func concatArgs(listFile, out string) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	args = append(args, encodeArgs()...)
	return append(args, out)
}

// writeConcatList produces a temp file in the concat demuxer's list format.
// Single quotes inside paths are closed, escaped and reopened.
func writeConcatList(inputs []string) (string, error) {
	f, err := os.CreateTemp("", "clipforge-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create concat list: %w", err)
	}

	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("resolve %s: %w", in, err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write concat list: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func parseFrameRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func stderrOf(err error) string {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return "\n" + string(ee.Stderr)
	}
	return ""
}

// tail keeps error messages readable; ffmpeg logs its full config banner.
func tail(b []byte) string {
	const max = 2048
	if len(b) <= max {
		return string(b)
	}
	return "..." + string(b[len(b)-max:])
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("stub"), 0644)
}

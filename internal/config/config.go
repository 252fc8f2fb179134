// Package config provides configuration management for ClipForge.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort           = 8765
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".clipforge"
	DefaultEncodeTimeoutS = 1800
	DefaultMaxUploadBytes = 4 * 1024 * 1024 * 1024 // 4GB per request

	// Environment variable names
	EnvPort           = "CLIPFORGE_PORT"
	EnvLogLevel       = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir        = "CLIPFORGE_DATA_DIR"
	EnvFFmpeg         = "CLIPFORGE_FFMPEG"
	EnvFFprobe        = "CLIPFORGE_FFPROBE"
	EnvAuthToken      = "CLIPFORGE_AUTH_TOKEN"
	EnvEncodeTimeoutS = "CLIPFORGE_ENCODE_TIMEOUT_S"
	EnvMaxUploadBytes = "CLIPFORGE_MAX_UPLOAD_BYTES"
	EnvKeepUploads    = "CLIPFORGE_KEEP_UPLOADS"
	EnvHeadless       = "CLIPFORGE_HEADLESS"

	// Database filename
	DBFilename = "clipforge.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	UploadsDir() string
	OutputsDir() string
	FFmpegPath() string
	FFprobePath() string
	AuthToken() string
	EncodeTimeout() time.Duration
	MaxUploadBytes() int64
	KeepUploads() bool
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	ffmpegPath     string
	ffprobePath    string
	authToken      string
	encodeTimeoutS int
	maxUploadBytes int64
	keepUploads    bool
	headless       bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
		encodeTimeoutS: DefaultEncodeTimeoutS,
		maxUploadBytes: DefaultMaxUploadBytes,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if fp := os.Getenv(EnvFFmpeg); fp != "" {
		cfg.ffmpegPath = fp
	}
	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobePath = fp
	}

	cfg.authToken = os.Getenv(EnvAuthToken)

	if ts := os.Getenv(EnvEncodeTimeoutS); ts != "" {
		seconds, err := strconv.Atoi(ts)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvEncodeTimeoutS)
		}
		cfg.encodeTimeoutS = seconds
	}

	if mb := os.Getenv(EnvMaxUploadBytes); mb != "" {
		limit, err := strconv.ParseInt(mb, 10, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive byte count", EnvMaxUploadBytes)
		}
		cfg.maxUploadBytes = limit
	}

	cfg.keepUploads = boolEnv(EnvKeepUploads)
	cfg.headless = boolEnv(EnvHeadless)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// UploadsDir returns the directory uploaded source videos are written to
func (c *EnvConfig) UploadsDir() string {
	return filepath.Join(c.dataDir, "uploads")
}

// OutputsDir returns the base directory per-job run directories live under
func (c *EnvConfig) OutputsDir() string {
	return filepath.Join(c.dataDir, "outputs")
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// AuthToken returns the optional API bearer token. Empty disables auth.
func (c *EnvConfig) AuthToken() string {
	return c.authToken
}

// EncodeTimeout bounds a single ffmpeg invocation
func (c *EnvConfig) EncodeTimeout() time.Duration {
	return time.Duration(c.encodeTimeoutS) * time.Second
}

func (c *EnvConfig) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// KeepUploads reports whether uploaded sources survive the request
func (c *EnvConfig) KeepUploads() bool {
	return c.keepUploads
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

func boolEnv(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "yes":
		return true
	}
	return false
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

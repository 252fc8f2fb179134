// Package api exposes the ClipForge operations as a loopback JSON API plus
// the embedded web front-end.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/editor"
	"github.com/clipforge/clipforge/internal/stream"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Editor         editor.EditService
	Repository     editor.Repository
	Media          *stream.Server
	UI             http.Handler
	AuthToken      string
	UploadsDir     string
	MaxUploadBytes int64
	KeepUploads    bool
	FFmpegOK       bool
	Logger         *slog.Logger
	StartTime      time.Time
	InstanceID     string
	Version        string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler: router,
			// Large uploads and synchronous encodes rule out body/write
			// deadlines; only header reads are bounded.
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       0,
			WriteTimeout:      0,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

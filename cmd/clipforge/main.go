package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/api"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/editor"
	"github.com/clipforge/clipforge/internal/ffmpeg"
	"github.com/clipforge/clipforge/internal/logging"
	"github.com/clipforge/clipforge/internal/stream"
	"github.com/clipforge/clipforge/internal/ui"
	"github.com/clipforge/clipforge/internal/web"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "clipforge",
		Short:        "Split and merge videos through a local web interface",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}

	root.Flags().Int("port", 0, "HTTP port (overrides "+config.EnvPort+")")
	root.Flags().String("data-dir", "", "Data directory (overrides "+config.EnvDataDir+")")
	root.Flags().Bool("headless", false, "Run without the system tray")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clipforge %s (built %s, commit %s)\n", config.Version, config.BuildTime, config.GitCommit)
		},
	})

	if err := root.Execute(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(cmd *cobra.Command) error {
	startTime := time.Now()

	// Flags override the environment by feeding it before config loads.
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		os.Setenv(config.EnvPort, fmt.Sprintf("%d", port))
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		os.Setenv(config.EnvDataDir, dataDir)
	}
	if headless, _ := cmd.Flags().GetBool("headless"); headless {
		os.Setenv(config.EnvHeadless, "1")
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.UploadsDir(), cfg.OutputsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := editor.NewRepository(database.Conn())

	instanceID, err := ensureInstanceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure instance ID: %w", err)
	}

	ffm := ffmpeg.NewExec(cfg.FFmpegPath(), cfg.FFprobePath(), logger)
	ffmpegOK := ffm.Available()
	if !ffmpegOK {
		logger.Warn("ffmpeg/ffprobe not found on PATH, editing operations will fail",
			"ffmpeg", cfg.FFmpegPath(), "ffprobe", cfg.FFprobePath())
	}

	editorSvc := editor.NewService(repo, ffm, cfg.OutputsDir(), cfg.EncodeTimeout(), logger)
	media := stream.NewServer(logger, cfg.OutputsDir(), cfg.UploadsDir())

	url := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port())
	fmt.Println()
	fmt.Printf("  ClipForge %s\n", config.Version)
	fmt.Printf("  Web UI:  %s\n", url)
	fmt.Printf("  Data:    %s\n", cfg.DataDir())
	fmt.Println()

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Editor:         editorSvc,
		Repository:     repo,
		Media:          media,
		UI:             web.Handler(),
		AuthToken:      cfg.AuthToken(),
		UploadsDir:     cfg.UploadsDir(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		KeepUploads:    cfg.KeepUploads(),
		FFmpegOK:       ffmpegOK,
		Logger:         logger,
		StartTime:      startTime,
		InstanceID:     instanceID,
		Version:        config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Logger: logger,
			URL:    url,
			OnOpen: func() {
				if err := openBrowser(url); err != nil {
					logger.Warn("failed to open browser", "error", err)
				}
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureInstanceID(repo editor.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "instance_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	instanceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "instance_id", instanceID); err != nil {
		return "", err
	}

	return instanceID, nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// Package ui provides the optional system tray for ClipForge.
package ui

import (
	_ "embed"
	"log/slog"

	"github.com/getlantern/systray"
)

//go:embed icon.png
var iconBytes []byte

type Tray struct {
	logger *slog.Logger
	url    string

	onOpen func()
	onQuit func()
}

type TrayConfig struct {
	Logger *slog.Logger
	URL    string
	OnOpen func()
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		logger: cfg.Logger,
		url:    cfg.URL,
		onOpen: cfg.OnOpen,
		onQuit: cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("ClipForge")
	systray.SetTooltip("ClipForge video splitter/merger")

	addrItem := systray.AddMenuItem(t.url, "Server address")
	addrItem.Disable()

	systray.AddSeparator()

	openItem := systray.AddMenuItem("Open ClipForge...", "Open the web interface")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ClipForge")

	go func() {
		for {
			select {
			case <-openItem.ClickedCh:
				if t.onOpen != nil {
					t.onOpen()
				}
			case <-quitItem.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.logger.Info("tray exiting")
	if t.onQuit != nil {
		t.onQuit()
	}
}

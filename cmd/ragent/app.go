package main

import (
	"os"

	"github.com/hao-ai-lab/research-agent-sub004/internal/client"
	"github.com/hao-ai-lab/research-agent-sub004/internal/config"
	"github.com/hao-ai-lab/research-agent-sub004/internal/engine"
	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
	"github.com/hao-ai-lab/research-agent-sub004/internal/store"
)

// the HTTP client is both the session store and the stream transport
var (
	_ engine.SessionStore    = (*client.Client)(nil)
	_ engine.StreamTransport = (*client.Client)(nil)
)

// app bundles the wired collaborators every command needs. Close
// releases the overlay store.
type app struct {
	settings config.Settings
	log      logging.Logger
	client   *client.Client
	ctrl     *engine.Controller
	dir      *engine.Directory
	overlay  store.OverlayStore
}

type appFactory func() (*app, error)

func newApp() (*app, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, logging.ParseLevel(settings.LogLevel()))

	apiClient := client.New(settings.ServerBaseURL(), log)

	overlayPath, err := settings.OverlayStorePath()
	if err != nil {
		return nil, err
	}
	overlay, err := store.Open(settings.StorageBackend(), overlayPath)
	if err != nil {
		return nil, err
	}

	ctrl := engine.NewController(apiClient, apiClient, log, settings.IdleTimeout())
	ctrl.SetMode(settings.DefaultMode())
	dir := engine.NewDirectory(apiClient, ctrl, overlay, log)

	return &app{
		settings: settings,
		log:      log,
		client:   apiClient,
		ctrl:     ctrl,
		dir:      dir,
		overlay:  overlay,
	}, nil
}

func (a *app) Close() error {
	return a.overlay.Close()
}

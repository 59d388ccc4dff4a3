package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trackid/internal/artwork"
	"trackid/internal/config"
	"trackid/internal/display"
	"trackid/internal/logger"
	"trackid/internal/shutdown"
	"trackid/internal/source"
	"trackid/internal/source/bandcamp"
	"trackid/internal/source/musicbrainz"
)

// app holds the wired-up collaborators shared by all commands. The registry
// is built once at startup from the configured source list; there is no
// ambient global state.
type app struct {
	ctx      context.Context
	cfg      config.Config
	log      *logger.Logger
	registry *source.Registry
	fetcher  *artwork.Fetcher
}

func main() {
	sh := shutdown.New()
	sh.Listen()

	a := &app{ctx: sh.Context()}

	root := newRootCommand(a)
	if err := root.Execute(); err != nil {
		display.Error(err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the logger, registry and artwork
// fetcher. Called from the root command's PersistentPreRunE so every
// subcommand sees the same collaborators.
func (a *app) setup(configPath string, verbose bool) error {
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.cfg = cfg

	a.log = logger.New(cfg.Verbose)
	if !cfg.Verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err == nil {
			logFile := filepath.Join(logDir, fmt.Sprintf("trackid_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := a.log.SetFileLog(logFile); err == nil {
				a.log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	display.Init()

	a.fetcher = artwork.New(a.log, time.Duration(cfg.ArtworkTimeoutSeconds)*time.Second)

	a.registry = source.NewRegistry()
	for _, name := range cfg.Sources {
		switch name {
		case "bandcamp":
			a.registry.Register(bandcamp.New())
		case "musicbrainz":
			a.registry.Register(musicbrainz.New(cfg.MusicBrainzUserAgent))
		}
	}

	return nil
}

// sourceByName resolves a --source flag value against the registry.
func (a *app) sourceByName(name string) (source.Source, error) {
	s, ok := a.registry.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown or unconfigured data source %q", name)
	}
	return s, nil
}

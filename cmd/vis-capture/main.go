package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petems/vis-capture/internal/app"
	"github.com/petems/vis-capture/internal/audio"
	"github.com/petems/vis-capture/internal/config"
	"github.com/petems/vis-capture/internal/logging"
	"github.com/petems/vis-capture/internal/wavsink"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: XDG config dir)")
	listDevices := flag.Bool("list-devices", false, "list capture devices and exit")
	out := flag.String("out", "", "write captured audio to this WAV file")
	frames := flag.Int("frames", 0, "frames per read (overrides config)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *frames > 0 {
		cfg.Capture.Frames = *frames
		cfg.Capture.Interval = app.BufferPeriod(*frames)
	}
	if *out != "" {
		cfg.Capture.WAVPath = *out
	}

	log, logFile := logging.NewWithLevel(cfg.Log.Level, cfg.Log.File)
	defer logFile.Close()

	if *listDevices {
		devices, err := audio.ListDevices(cfg.Audio.Backend)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list devices")
		}
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("%s %-40s %s\n", marker, d.ID, d.Name)
		}
		return
	}

	source, err := audio.New(audio.Config{
		Backend:       cfg.Audio.Backend,
		ReopenBackoff: cfg.Audio.ReopenBackoff,
		ReadTimeout:   cfg.Audio.ReadTimeout,
	}, cfg.Audio, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}

	var sink app.FrameSink
	if cfg.Capture.WAVPath != "" {
		w, err := wavsink.Create(cfg.Capture.WAVPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create WAV output")
		}
		sink = w
	}

	application := app.New(app.Config{
		Source:   source,
		Frames:   cfg.Capture.Frames,
		Interval: cfg.Capture.Interval,
		Sink:     sink,
		Logger:   log,

		StatusUpdater: app.NewLogStatus(log),
	})

	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("backend", cfg.Audio.Backend).
		Msg("vis-capture starting...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *duration)
		defer stop()
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Capture loop error")
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

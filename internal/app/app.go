package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/petems/vis-capture/internal/audio"
	"github.com/rs/zerolog"
)

// StatusUpdater is notified when capture starts or stops delivering audio
type StatusUpdater interface {
	SetCapturing()
	SetSilent()
}

// FrameSink receives every buffer of captured audio
type FrameSink interface {
	Write(frames []audio.Sample) error
	Close() error
}

type Config struct {
	Source        audio.Source
	Frames        int
	Interval      time.Duration
	Sink          FrameSink // Optional - can be nil
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - defaults to LogStatus
}

// Stats counts reads since the app started
type Stats struct {
	Reads    int
	Failures int
	Frames   int
}

// App drives a Source at a fixed cadence, the way a visualizer would.
type App struct {
	src      audio.Source
	frames   int
	interval time.Duration
	sink     FrameSink
	log      zerolog.Logger
	status   StatusUpdater

	buf []audio.Sample

	mu        sync.Mutex
	stats     Stats
	levels    Levels
	capturing bool
	started   bool
}

func New(cfg Config) *App {
	a := &App{
		src:      cfg.Source,
		frames:   cfg.Frames,
		interval: cfg.Interval,
		sink:     cfg.Sink,
		log:      cfg.Logger,
		status:   cfg.StatusUpdater,
		buf:      make([]audio.Sample, cfg.Frames),
	}
	if a.status == nil {
		a.status = NewLogStatus(cfg.Logger)
	}
	return a
}

// Run reads from the source until ctx is done. Read failures never stop
// the loop; the source recovers on its own.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().
		Int("frames", a.frames).
		Dur("interval", a.interval).
		Msg("Capture loop starting")

	var tick <-chan time.Time
	if a.interval > 0 {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Without an interval, a failed read still waits one buffer period so a
	// missing device cannot turn the loop into a busy spin.
	backoff := time.NewTimer(BufferPeriod(a.frames))
	backoff.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ok := a.step()

		wait := tick
		if wait == nil {
			if ok {
				continue
			}
			backoff.Reset(BufferPeriod(a.frames))
			wait = backoff.C
		}
		select {
		case <-ctx.Done():
		case <-wait:
		}
	}
}

// BufferPeriod is the wall-clock duration of frames frames of audio.
func BufferPeriod(frames int) time.Duration {
	return time.Duration(frames) * time.Second / audio.SampleRate
}

func (a *App) step() bool {
	ok := a.src.Read(a.buf, a.frames)
	levels := PeakLevels(a.buf)

	a.mu.Lock()
	a.stats.Reads++
	if ok {
		a.stats.Frames += a.frames
	} else {
		a.stats.Failures++
	}
	a.levels = levels
	changed := !a.started || ok != a.capturing
	a.started = true
	a.capturing = ok
	a.mu.Unlock()

	if changed {
		a.notify(ok)
	}

	if ok {
		a.log.Debug().
			Int16("peak_left", levels.Left).
			Int16("peak_right", levels.Right).
			Msg("Captured buffer")
		if a.sink != nil {
			if err := a.sink.Write(a.buf); err != nil {
				a.log.Error().Err(err).Msg("Sink write failed, disabling sink")
				if err := a.sink.Close(); err != nil {
					a.log.Debug().Err(err).Msg("Sink close failed")
				}
				a.sink = nil
			}
		}
	}
	return ok
}

func (a *App) notify(capturing bool) {
	if capturing {
		a.status.SetCapturing()
	} else {
		a.status.SetSilent()
	}
}

func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *App) Levels() Levels {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.levels
}

func (a *App) IsCapturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capturing
}

// Shutdown closes the sink and the source. Call it after Run returned.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			errs = append(errs, err)
		}
		a.sink = nil
	}
	if err := a.src.Close(); err != nil {
		errs = append(errs, err)
	}

	stats := a.Stats()
	a.log.Info().
		Int("reads", stats.Reads).
		Int("failures", stats.Failures).
		Int("frames", stats.Frames).
		Msg("Capture stopped")

	return errors.Join(errs...)
}

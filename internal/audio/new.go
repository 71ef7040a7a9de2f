package audio

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and tunes the capture variant at startup
type Config struct {
	Backend       string
	ReopenBackoff time.Duration
	ReadTimeout   time.Duration
}

// NewBackend returns the platform backend registered under name.
func NewBackend(name string, readTimeout time.Duration) (Backend, error) {
	switch name {
	case "pulse", "":
		return NewPulse(readTimeout), nil
	case "portaudio":
		return NewPortAudio()
	case "disabled", "none":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// New creates the Source for cfg. A disabled backend yields a DisabledSource.
func New(cfg Config, settings Settings, log zerolog.Logger) (Source, error) {
	backend, err := NewBackend(cfg.Backend, cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	if _, ok := backend.(Disabled); ok {
		log.Info().Msg("Audio capture disabled")
		return DisabledSource{}, nil
	}

	return NewCaptureSource(settings, backend, log, WithReopenBackoff(cfg.ReopenBackoff)), nil
}

// ListDevices enumerates the capture devices known to the named backend.
func ListDevices(name string) ([]Device, error) {
	backend, err := NewBackend(name, 0)
	if err != nil {
		return nil, err
	}
	lister, ok := backend.(DeviceLister)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot list devices", backend.Name())
	}
	return lister.ListDevices()
}

package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OpenError reports that no candidate device could be opened.
type OpenError struct {
	Backend   string
	Attempted []string
	Err       error
}

func (e *OpenError) Error() string {
	device := ""
	if len(e.Attempted) > 0 {
		device = e.Attempted[len(e.Attempted)-1]
	}
	return fmt.Sprintf("%s %s source %q: %v", ErrDeviceOpen, e.Backend, device, e.Err)
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrDeviceOpen, e.Err}
}

type connection struct {
	id     uuid.UUID
	device string
	stream Stream
}

// Option configures a CaptureSource
type Option func(*CaptureSource)

// WithReopenBackoff suppresses reopen attempts for d after a failed open or
// read. Zero reopens on the very next Read.
func WithReopenBackoff(d time.Duration) Option {
	return func(s *CaptureSource) {
		s.backoff = d
	}
}

// WithClock replaces time.Now for the reopen backoff.
func WithClock(now func() time.Time) Option {
	return func(s *CaptureSource) {
		s.now = now
	}
}

// CaptureSource is a Source backed by a live capture device. It opens the
// device lazily, drops the connection on any read failure and reopens it on
// the next Read. It is not safe for concurrent use.
type CaptureSource struct {
	settings Settings
	backend  Backend
	log      zerolog.Logger

	conn *connection
	raw  []byte

	backoff     time.Duration
	now         func() time.Time
	lastFailure time.Time
}

// NewCaptureSource creates a source that captures through backend. settings
// must outlive the source.
func NewCaptureSource(settings Settings, backend Backend, log zerolog.Logger, opts ...Option) *CaptureSource {
	s := &CaptureSource{
		settings: settings,
		backend:  backend,
		log:      log.With().Str("backend", backend.Name()).Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if freq := settings.SamplingFrequency(); freq != SampleRate {
		s.log.Warn().
			Int("sampling_frequency", freq).
			Int("capture_rate", SampleRate).
			Msg("Configured sampling frequency differs from capture rate")
	}

	return s
}

// Connected reports whether a capture stream is currently open.
func (s *CaptureSource) Connected() bool {
	return s.conn != nil
}

// Open connects to the first candidate device that accepts a record stream
// sized for maxBufferBytes. It is a no-op when already connected.
func (s *CaptureSource) Open(maxBufferBytes int) bool {
	if s.conn != nil {
		return true
	}
	if err := s.open(maxBufferBytes); err != nil {
		var openErr *OpenError
		if errors.As(err, &openErr) {
			s.log.Error().
				Err(openErr.Err).
				Str("device", deviceLabel(openErr.Attempted[len(openErr.Attempted)-1])).
				Strs("attempted", openErr.Attempted).
				Msg("Could not open capture source")
		}
		s.lastFailure = s.now()
		return false
	}
	return true
}

func (s *CaptureSource) open(maxBufferBytes int) error {
	spec := NewStreamSpec(maxBufferBytes)
	preferred, ok := s.settings.PreferredDevice()

	var attempted []string
	var lastErr error
	for _, device := range Candidates(preferred, ok) {
		attempted = append(attempted, device)

		stream, err := s.backend.Open(device, spec)
		if err != nil {
			s.log.Debug().Err(err).Str("device", deviceLabel(device)).Msg("Capture device attempt failed")
			lastErr = err
			continue
		}

		s.conn = &connection{
			id:     uuid.New(),
			device: device,
			stream: stream,
		}
		s.log.Info().
			Str("device", deviceLabel(device)).
			Str("connection", s.conn.id.String()).
			Uint32("max_length", spec.Buffer.MaxLength).
			Uint32("frag_size", spec.Buffer.FragSize).
			Msg("Capture source opened")
		return nil
	}

	return &OpenError{
		Backend:   s.backend.Name(),
		Attempted: attempted,
		Err:       lastErr,
	}
}

// Read captures exactly frames frames into buf. On any failure buf is
// zero-filled and false is returned; a broken connection is torn down so
// the next call reopens it. len(buf) must equal frames.
func (s *CaptureSource) Read(buf []Sample, frames int) bool {
	checkBuffer(buf, frames)
	if frames == 0 {
		return false
	}

	size := frames * FrameSize

	if s.conn == nil && s.reopenDue() {
		s.Open(size)
	}

	if s.conn == nil {
		Silence(buf)
		return false
	}

	if cap(s.raw) < size {
		s.raw = make([]byte, size)
	}
	raw := s.raw[:size]

	n, err := s.conn.stream.Read(raw)
	if err != nil || n < size {
		if err == nil {
			err = ErrStreamRead
		}
		s.log.Warn().
			Err(err).
			Str("device", deviceLabel(s.conn.device)).
			Str("connection", s.conn.id.String()).
			Int("bytes_read", n).
			Int("buffer_size", size).
			Msg("Could not finish reading capture stream buffer")

		Silence(buf)
		s.disconnect()
		s.lastFailure = s.now()
		return false
	}

	DecodeFrames(raw, buf)
	return true
}

func (s *CaptureSource) reopenDue() bool {
	if s.backoff <= 0 || s.lastFailure.IsZero() {
		return true
	}
	return s.now().Sub(s.lastFailure) >= s.backoff
}

func (s *CaptureSource) disconnect() {
	if s.conn == nil {
		return
	}
	if err := s.conn.stream.Close(); err != nil {
		s.log.Debug().Err(err).Str("connection", s.conn.id.String()).Msg("Capture stream close failed")
	}
	s.conn = nil
}

// Close releases the capture stream, if any. It never fails.
func (s *CaptureSource) Close() error {
	if s.conn != nil {
		_ = s.conn.stream.Close()
		s.conn = nil
	}
	return nil
}

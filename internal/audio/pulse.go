package audio

import (
	"fmt"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/smallnest/ringbuffer"
)

const pulsePollInterval = 100 * time.Millisecond

// Pulse is a Backend that records from a PulseAudio (or PipeWire-pulse)
// server. Every stream uses its own client connection.
type Pulse struct {
	// ReadTimeout fails a read when no data arrived for that long. Zero
	// waits until the server closes the stream.
	ReadTimeout time.Duration
}

func NewPulse(readTimeout time.Duration) *Pulse {
	return &Pulse{ReadTimeout: readTimeout}
}

func (b *Pulse) Name() string {
	return "pulse"
}

func (b *Pulse) Open(device string, spec StreamSpec) (Stream, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(spec.Name))
	if err != nil {
		return nil, fmt.Errorf("connecting to pulse server: %w", err)
	}

	source, err := lookupSource(client, device)
	if err != nil {
		client.Close()
		return nil, err
	}

	s := newPulseStream(int(spec.Buffer.MaxLength)*2, b.ReadTimeout)

	fragFrames := float64(spec.Buffer.FragSize / FrameSize)
	record, err := client.NewRecord(
		pulse.NewWriter(s, proto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordStereo,
		pulse.RecordSampleRate(spec.Format.Rate),
		pulse.RecordLatency(fragFrames/float64(spec.Format.Rate)),
		pulse.RecordMediaName(spec.Description),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("creating record stream on %q: %w", source.ID(), err)
	}
	s.state = record
	s.release = func() {
		record.Stop()
		record.Close()
		client.Close()
	}
	record.Start()

	return s, nil
}

func lookupSource(client *pulse.Client, device string) (*pulse.Source, error) {
	if device == DefaultDevice {
		source, err := client.DefaultSource()
		if err != nil {
			return nil, fmt.Errorf("getting default source: %w", err)
		}
		return source, nil
	}
	source, err := client.SourceByID(device)
	if err != nil {
		return nil, fmt.Errorf("getting source %q: %w", device, err)
	}
	return source, nil
}

func (b *Pulse) ListDevices() ([]Device, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(StreamName))
	if err != nil {
		return nil, fmt.Errorf("connecting to pulse server: %w", err)
	}
	defer client.Close()

	sources, err := client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	defaultID := ""
	if d, err := client.DefaultSource(); err == nil {
		defaultID = d.ID()
	}

	devices := make([]Device, 0, len(sources))
	for _, source := range sources {
		devices = append(devices, Device{
			ID:      source.ID(),
			Name:    source.Name(),
			Default: source.ID() == defaultID,
		})
	}
	return devices, nil
}

// recordState is the part of a record stream that reports its health.
type recordState interface {
	Closed() bool
	Error() error
}

// pulseStream turns the server's push callbacks into blocking reads.
type pulseStream struct {
	state   recordState
	release func()
	ring    *ringbuffer.RingBuffer
	wakeup  chan struct{}
	timeout time.Duration
}

func newPulseStream(ringSize int, timeout time.Duration) *pulseStream {
	return &pulseStream{
		ring:    ringbuffer.New(ringSize),
		wakeup:  make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Write is called from the client's goroutine. Bytes that do not fit are
// dropped rather than stalling the connection.
func (s *pulseStream) Write(p []byte) (int, error) {
	_, _ = s.ring.Write(p)
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Read blocks until p is full. The read timeout restarts whenever data
// arrives, so it only fires on a stalled stream.
func (s *pulseStream) Read(p []byte) (int, error) {
	poll := time.NewTicker(pulsePollInterval)
	defer poll.Stop()

	var stall *time.Timer
	var deadline <-chan time.Time
	if s.timeout > 0 {
		stall = time.NewTimer(s.timeout)
		defer stall.Stop()
		deadline = stall.C
	}

	n := 0
	for n < len(p) {
		if s.ring.Length() > 0 {
			m, _ := s.ring.Read(p[n:])
			n += m
			if stall != nil {
				stall.Reset(s.timeout)
			}
			continue
		}

		if s.state.Closed() {
			return n, fmt.Errorf("%w: stream closed by server", ErrStreamRead)
		}
		if err := s.state.Error(); err != nil {
			return n, fmt.Errorf("%w: %w", ErrStreamRead, err)
		}

		select {
		case <-s.wakeup:
		case <-poll.C:
		case <-deadline:
			return n, fmt.Errorf("%w: no data for %s", ErrStreamRead, s.timeout)
		}
	}

	return n, nil
}

func (s *pulseStream) Close() error {
	if s.release != nil {
		s.release()
	}
	return nil
}

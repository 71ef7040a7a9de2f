package audio

import "errors"

// Fixed capture format. Channel count and encoding are not configurable.
const (
	SampleRate = 44100
	Channels   = 2
	FrameSize  = 4 // bytes per Sample
	Encoding   = "s16le"

	StreamName        = "vis"
	StreamDescription = "vis stream"
)

var (
	ErrDeviceOpen      = errors.New("could not open capture device")
	ErrStreamRead      = errors.New("could not finish reading capture stream")
	ErrBackendDisabled = errors.New("audio backend disabled")
	ErrUnknownBackend  = errors.New("unknown audio backend")
)

// Sample is one interleaved stereo frame of signed 16-bit PCM.
type Sample struct {
	Left  int16
	Right int16
}

// Source defines the interface consumers capture audio through
type Source interface {
	// Read fills buf with captured audio. It returns false and an all-zero
	// buf when nothing could be captured.
	Read(buf []Sample, frames int) bool
	Close() error
}

// Settings supplies the capture preferences
type Settings interface {
	SamplingFrequency() int
	PreferredDevice() (string, bool)
}

// Device represents an audio input device
type Device struct {
	ID      string
	Name    string
	Default bool
}

// DeviceLister is implemented by backends that can enumerate capture devices.
type DeviceLister interface {
	ListDevices() ([]Device, error)
}

type Format struct {
	Encoding string
	Rate     int
	Channels int
}

func DefaultFormat() Format {
	return Format{
		Encoding: Encoding,
		Rate:     SampleRate,
		Channels: Channels,
	}
}

// BufferAttr bounds capture latency to roughly one buffer period.
type BufferAttr struct {
	MaxLength uint32
	FragSize  uint32
}

func NewBufferAttr(maxBytes int) BufferAttr {
	return BufferAttr{
		MaxLength: uint32(maxBytes),
		FragSize:  uint32(maxBytes / 2),
	}
}

// StreamSpec is everything a backend needs to open a record stream.
type StreamSpec struct {
	Name        string
	Description string
	Format      Format
	Buffer      BufferAttr
}

func NewStreamSpec(maxBytes int) StreamSpec {
	return StreamSpec{
		Name:        StreamName,
		Description: StreamDescription,
		Format:      DefaultFormat(),
		Buffer:      NewBufferAttr(maxBytes),
	}
}

// Backend opens record streams against a platform audio layer.
type Backend interface {
	Name() string
	Open(device string, spec StreamSpec) (Stream, error)
}

// Stream is an open record stream. Read blocks until len(p) bytes were
// captured or the stream failed; n reports the bytes actually obtained.
type Stream interface {
	Read(p []byte) (n int, err error)
	Close() error
}

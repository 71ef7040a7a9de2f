//go:build portaudio

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is a Backend that records through PortAudio.
type PortAudio struct{}

func NewPortAudio() (Backend, error) {
	return PortAudio{}, nil
}

func (PortAudio) Name() string {
	return "portaudio"
}

func (PortAudio) Open(device string, spec StreamSpec) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	s, err := openPortAudioStream(device, spec)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

func openPortAudioStream(device string, spec StreamSpec) (*portAudioStream, error) {
	info, err := findInputDevice(device)
	if err != nil {
		return nil, err
	}
	if info.MaxInputChannels < spec.Format.Channels {
		return nil, fmt.Errorf("device %q has %d input channels, need %d", info.Name, info.MaxInputChannels, spec.Format.Channels)
	}

	frames := int(spec.Buffer.FragSize) / FrameSize
	if frames < 1 {
		frames = 1
	}
	latency := time.Duration(spec.Buffer.MaxLength/FrameSize) * time.Second / time.Duration(spec.Format.Rate)

	buffer := make([]int16, frames*spec.Format.Channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: spec.Format.Channels,
			Latency:  max(latency, info.DefaultLowInputLatency),
		},
		SampleRate:      float64(spec.Format.Rate),
		FramesPerBuffer: frames,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream on %q: %w", info.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream on %q: %w", info.Name, err)
	}

	s := &portAudioStream{
		stream: stream,
		buffer: buffer,
		raw:    make([]byte, len(buffer)*2),
	}
	s.reader = newChunkReader(len(s.raw), s.fill)
	return s, nil
}

// findInputDevice resolves "" to the default input, a decimal string to a
// device index and anything else to a device name.
func findInputDevice(device string) (*portaudio.DeviceInfo, error) {
	if device == DefaultDevice {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	if idx, err := strconv.Atoi(device); err == nil {
		if idx < 0 || idx >= len(devices) {
			return nil, fmt.Errorf("device index %d out of range (%d devices)", idx, len(devices))
		}
		return devices[idx], nil
	}

	for _, d := range devices {
		if d.Name == device && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", device)
}

type portAudioStream struct {
	stream *portaudio.Stream
	buffer []int16
	raw    []byte
	reader *chunkReader
}

func (p *portAudioStream) fill() ([]byte, error) {
	// An overflow still delivers a full buffer; only the dropped input is lost.
	if err := p.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	for i, v := range p.buffer {
		binary.LittleEndian.PutUint16(p.raw[i*2:], uint16(v))
	}
	return p.raw, nil
}

func (p *portAudioStream) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

func (p *portAudioStream) Close() error {
	p.stream.Stop()
	err := p.stream.Close()
	portaudio.Terminate()
	return err
}

func (PortAudio) ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      strconv.Itoa(i),
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

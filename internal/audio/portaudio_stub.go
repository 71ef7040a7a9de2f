//go:build !portaudio

package audio

import "fmt"

// NewPortAudio reports that PortAudio support was not compiled in.
func NewPortAudio() (Backend, error) {
	return nil, fmt.Errorf("%w: portaudio not available, rebuild with -tags portaudio", ErrUnknownBackend)
}

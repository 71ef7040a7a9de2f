package wavsink

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/petems/vis-capture/internal/audio"
)

// Writer stores captured frames as a 16-bit stereo PCM WAV file. The file
// is only valid after Close.
type Writer struct {
	f       *os.File
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
}

// Create opens path for writing, truncating any existing file
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}

	return &Writer{
		f:       f,
		encoder: wav.NewEncoder(f, audio.SampleRate, 16, audio.Channels, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: audio.Channels,
				SampleRate:  audio.SampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

func (w *Writer) Write(frames []audio.Sample) error {
	data := w.buf.Data[:0]
	for _, s := range frames {
		data = append(data, int(s.Left), int(s.Right))
	}
	w.buf.Data = data

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("finalizing wav file: %w", err)
	}
	return w.f.Close()
}

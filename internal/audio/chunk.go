package audio

import (
	"fmt"

	"github.com/smallnest/ringbuffer"
)

// chunkReader adapts a device that delivers fixed-size chunks to reads of
// any length. Bytes left over from the last chunk are served first on the
// next read.
type chunkReader struct {
	fill    func() ([]byte, error)
	pending *ringbuffer.RingBuffer
}

func newChunkReader(chunkBytes int, fill func() ([]byte, error)) *chunkReader {
	return &chunkReader{
		fill:    fill,
		pending: ringbuffer.New(chunkBytes),
	}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	n := 0
	if r.pending.Length() > 0 {
		n, _ = r.pending.Read(p)
	}

	for n < len(p) {
		chunk, err := r.fill()
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrStreamRead, err)
		}
		c := copy(p[n:], chunk)
		n += c
		if c < len(chunk) {
			if _, err := r.pending.Write(chunk[c:]); err != nil {
				return n, fmt.Errorf("%w: buffering leftover frames: %w", ErrStreamRead, err)
			}
		}
	}

	return n, nil
}

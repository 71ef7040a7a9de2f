package audio

import (
	"errors"
	"testing"
)

// counter produces chunks of consecutive byte values.
type counter struct {
	size  int
	next  byte
	calls int
	err   error
}

func (c *counter) fill() ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	chunk := make([]byte, c.size)
	for i := range chunk {
		chunk[i] = c.next
		c.next++
	}
	return chunk, nil
}

func TestChunkReaderSplitsChunks(t *testing.T) {
	src := &counter{size: 8}
	r := newChunkReader(8, src.fill)

	var got []byte
	for _, n := range []int{3, 5, 12, 4} {
		p := make([]byte, n)
		m, err := r.Read(p)
		if err != nil {
			t.Fatalf("read %d: %v", n, err)
		}
		if m != n {
			t.Fatalf("expected %d bytes, got %d", n, m)
		}
		got = append(got, p...)
	}

	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("byte %d out of order: %d", i, b)
		}
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 device chunks, got %d", src.calls)
	}
}

func TestChunkReaderReportsPartialOnError(t *testing.T) {
	src := &counter{size: 4}
	r := newChunkReader(4, src.fill)

	p := make([]byte, 6)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src.err = errors.New("device gone")
	n, err := r.Read(make([]byte, 8))
	if !errors.Is(err, ErrStreamRead) {
		t.Fatalf("expected ErrStreamRead, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected the 2 buffered bytes, got %d", n)
	}
}

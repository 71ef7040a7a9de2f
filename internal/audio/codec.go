package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxFrames is the largest read whose byte size still fits the uint32
// buffer attributes handed to a backend.
const MaxFrames = math.MaxUint32 / FrameSize

// DecodeFrames converts little-endian interleaved bytes into buf.
func DecodeFrames(raw []byte, buf []Sample) {
	if len(raw) < len(buf)*FrameSize {
		panic(fmt.Sprintf("audio: decode %d frames from %d bytes", len(buf), len(raw)))
	}
	for i := range buf {
		off := i * FrameSize
		buf[i].Left = int16(binary.LittleEndian.Uint16(raw[off:]))
		buf[i].Right = int16(binary.LittleEndian.Uint16(raw[off+2:]))
	}
}

// EncodeFrames is the inverse of DecodeFrames.
func EncodeFrames(buf []Sample, raw []byte) {
	if len(raw) < len(buf)*FrameSize {
		panic(fmt.Sprintf("audio: encode %d frames into %d bytes", len(buf), len(raw)))
	}
	for i, s := range buf {
		off := i * FrameSize
		binary.LittleEndian.PutUint16(raw[off:], uint16(s.Left))
		binary.LittleEndian.PutUint16(raw[off+2:], uint16(s.Right))
	}
}

// Silence zero-fills buf.
func Silence(buf []Sample) {
	clear(buf)
}

func checkBuffer(buf []Sample, frames int) {
	if frames > MaxFrames {
		panic(fmt.Sprintf("audio: read of %d frames exceeds the %d frame limit", frames, MaxFrames))
	}
	if frames < 0 || len(buf) != frames {
		panic(fmt.Sprintf("audio: buffer holds %d frames, read asked for %d", len(buf), frames))
	}
}

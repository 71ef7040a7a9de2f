package app

import (
	"math"

	"github.com/petems/vis-capture/internal/audio"
)

// Levels holds the absolute peak of each channel in one buffer
type Levels struct {
	Left  int16
	Right int16
}

func PeakLevels(buf []audio.Sample) Levels {
	var l, r int
	for _, s := range buf {
		l = max(l, abs(int(s.Left)))
		r = max(r, abs(int(s.Right)))
	}
	return Levels{Left: clamp(l), Right: clamp(r)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clamp keeps |math.MinInt16| representable.
func clamp(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

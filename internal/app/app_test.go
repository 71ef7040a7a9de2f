package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/petems/vis-capture/internal/audio"
	"github.com/petems/vis-capture/internal/config"
	"github.com/rs/zerolog"
)

// Mock implementations for testing
type mockSource struct {
	results []bool // scripted Read results, repeats the last one
	reads   int
	closed  bool
	cancel  context.CancelFunc
	stopAt  int
}

func (m *mockSource) Read(buf []audio.Sample, frames int) bool {
	ok := m.results[min(m.reads, len(m.results)-1)]
	m.reads++
	for i := range buf {
		if ok {
			buf[i] = audio.Sample{Left: int16(i), Right: -int16(i)}
		} else {
			buf[i] = audio.Sample{}
		}
	}
	if m.cancel != nil && m.reads >= m.stopAt {
		m.cancel()
	}
	return ok
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

type mockStatus struct {
	events []string
}

func (m *mockStatus) SetCapturing() {
	m.events = append(m.events, "capturing")
}

func (m *mockStatus) SetSilent() {
	m.events = append(m.events, "silent")
}

type mockSink struct {
	writes   int
	frames   int
	err      error
	closeErr error
	closed   int
}

func (m *mockSink) Write(frames []audio.Sample) error {
	m.writes++
	m.frames += len(frames)
	return m.err
}

func (m *mockSink) Close() error {
	m.closed++
	return m.closeErr
}

func runFor(t *testing.T, src *mockSource, reads int, cfg Config) *App {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	src.cancel = cancel
	src.stopAt = reads

	cfg.Source = src
	cfg.Logger = zerolog.Nop()
	a := New(cfg)
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return a
}

func TestRunCountsReads(t *testing.T) {
	src := &mockSource{results: []bool{true, false, false, true}}
	a := runFor(t, src, 4, Config{Frames: 64})

	stats := a.Stats()
	if stats.Reads != 4 {
		t.Errorf("expected 4 reads, got %d", stats.Reads)
	}
	if stats.Failures != 2 {
		t.Errorf("expected 2 failures, got %d", stats.Failures)
	}
	if stats.Frames != 128 {
		t.Errorf("expected 128 captured frames, got %d", stats.Frames)
	}
	if !a.IsCapturing() {
		t.Error("expected app to be capturing after a successful read")
	}
}

func TestStatusTransitions(t *testing.T) {
	status := &mockStatus{}
	src := &mockSource{results: []bool{false, false, true, true, false}}
	runFor(t, src, 5, Config{Frames: 8, StatusUpdater: status})

	want := []string{"silent", "capturing", "silent"}
	if len(status.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, status.events)
	}
	for i := range want {
		if status.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, status.events)
		}
	}
}

func TestSinkReceivesOnlyCapturedAudio(t *testing.T) {
	sink := &mockSink{}
	src := &mockSource{results: []bool{true, false, true}}
	a := runFor(t, src, 3, Config{Frames: 16, Sink: sink})

	if sink.writes != 2 || sink.frames != 32 {
		t.Errorf("expected 2 writes of 16 frames, got %d writes of %d frames", sink.writes, sink.frames)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("expected sink to be closed once, got %d", sink.closed)
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
}

func TestSinkErrorDisablesSink(t *testing.T) {
	sink := &mockSink{err: errors.New("disk full")}
	src := &mockSource{results: []bool{true}}
	a := runFor(t, src, 3, Config{Frames: 4, Sink: sink})

	if sink.writes != 1 {
		t.Errorf("expected sink to be dropped after the first error, got %d writes", sink.writes)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("expected sink to be closed once, got %d", sink.closed)
	}
}

func TestRunHonorsInterval(t *testing.T) {
	src := &mockSource{results: []bool{true}}
	start := time.Now()
	runFor(t, src, 3, Config{Frames: 4, Interval: 10 * time.Millisecond})

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected reads to be paced, finished in %s", elapsed)
	}
}

func TestPeakLevels(t *testing.T) {
	buf := []audio.Sample{
		{Left: 100, Right: -200},
		{Left: -32768, Right: 50},
		{Left: 3, Right: 199},
	}
	got := PeakLevels(buf)
	if got.Left != 32767 || got.Right != 200 {
		t.Fatalf("unexpected levels %+v", got)
	}
	if PeakLevels(nil) != (Levels{}) {
		t.Fatal("expected zero levels for an empty buffer")
	}
}

func TestSinkCloseErrorIsLogged(t *testing.T) {
	var out bytes.Buffer
	sink := &mockSink{err: errors.New("disk full"), closeErr: errors.New("bad header")}
	src := &mockSource{results: []bool{true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.cancel = cancel
	src.stopAt = 1

	a := New(Config{Source: src, Frames: 4, Sink: sink, Logger: zerolog.New(&out)})
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	logged := out.String()
	if !strings.Contains(logged, "Sink close failed") || !strings.Contains(logged, "bad header") {
		t.Errorf("expected sink close error in log, got %s", logged)
	}
}

func TestDefaultConfigPacesFailedReads(t *testing.T) {
	cfg := config.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	a := New(Config{
		Source:   audio.DisabledSource{},
		Frames:   cfg.Capture.Frames,
		Interval: cfg.Capture.Interval,
		Logger:   zerolog.Nop(),
	})
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 1024 frames last about 23ms, so 100ms allows roughly five reads.
	if reads := a.Stats().Reads; reads > 10 {
		t.Errorf("expected paced reads without a device, got %d in 100ms", reads)
	}
}

func TestZeroIntervalWaitsAfterFailedRead(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	a := New(Config{
		Source: audio.DisabledSource{},
		Frames: 1024,
		Logger: zerolog.Nop(),
	})
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if reads := a.Stats().Reads; reads > 10 {
		t.Errorf("expected failed reads to wait a buffer period, got %d in 100ms", reads)
	}
}

func TestLogStatusIsDefault(t *testing.T) {
	var out bytes.Buffer
	src := &mockSource{results: []bool{false, true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.cancel = cancel
	src.stopAt = 2

	a := New(Config{Source: src, Frames: 4, Logger: zerolog.New(&out)})
	if _, ok := a.status.(*LogStatus); !ok {
		t.Fatalf("expected LogStatus by default, got %T", a.status)
	}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	logged := out.String()
	if !strings.Contains(logged, "No audio, delivering silence") || !strings.Contains(logged, "Capturing audio") {
		t.Errorf("expected both transitions in log, got %s", logged)
	}
}

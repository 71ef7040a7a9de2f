package logging

import (
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const logFile = "vis-capture/vis-capture.log"

// New creates a console logger at info level
func New() zerolog.Logger {
	return NewWithWriter(consoleWriter(), "info")
}

// NewWithLevel creates a logger with console and, when toFile is set, file
// output. The returned closer releases the log file.
func NewWithLevel(level string, toFile bool) (zerolog.Logger, io.Closer) {
	if !toFile {
		return NewWithWriter(consoleWriter(), level), nopCloser{}
	}

	logPath, err := xdg.StateFile(logFile)
	if err != nil {
		log := NewWithWriter(consoleWriter(), level)
		log.Warn().Err(err).Msg("Failed to resolve log file path, logging to console only")
		return log, nopCloser{}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log := NewWithWriter(consoleWriter(), level)
		log.Warn().Err(err).Str("path", logPath).Msg("Failed to open log file, logging to console only")
		return log, nopCloser{}
	}

	// Multi-writer: console + file
	multi := zerolog.MultiLevelWriter(consoleWriter(), f)
	return NewWithWriter(multi, level), f
}

// NewWithWriter creates a logger writing to w at the given level
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

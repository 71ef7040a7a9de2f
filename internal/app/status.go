package app

import "github.com/rs/zerolog"

// LogStatus is a StatusUpdater that reports transitions to the log
type LogStatus struct {
	log zerolog.Logger
}

func NewLogStatus(log zerolog.Logger) *LogStatus {
	return &LogStatus{log: log}
}

func (s *LogStatus) SetCapturing() {
	s.log.Info().Msg("Capturing audio")
}

func (s *LogStatus) SetSilent() {
	s.log.Warn().Msg("No audio, delivering silence")
}

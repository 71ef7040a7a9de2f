package audio

// DisabledSource is the Source used when capture is turned off. Every read
// yields silence.
type DisabledSource struct{}

func (DisabledSource) Read(buf []Sample, frames int) bool {
	checkBuffer(buf, frames)
	Silence(buf)
	return false
}

func (DisabledSource) Close() error {
	return nil
}

// Disabled is a Backend that never opens a stream.
type Disabled struct{}

func (Disabled) Name() string {
	return "disabled"
}

func (Disabled) Open(string, StreamSpec) (Stream, error) {
	return nil, ErrBackendDisabled
}

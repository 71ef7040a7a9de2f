package audio

const (
	// DefaultDevice asks the backend for its default capture device.
	DefaultDevice = ""
	// FallbackDevice is tried when no device is configured and the default
	// failed to open; "0" is the first source on most PulseAudio setups.
	FallbackDevice = "0"
)

// Candidates returns the devices to try, in order, for the given preference.
// An explicit preference is never followed by a fallback.
func Candidates(preferred string, ok bool) []string {
	if ok && preferred != "" {
		return []string{preferred}
	}
	return []string{DefaultDevice, FallbackDevice}
}

func deviceLabel(device string) string {
	if device == DefaultDevice {
		return "default"
	}
	return device
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/petems/vis-capture/internal/audio"
)

const appName = "vis-capture"

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Capture CaptureConfig `yaml:"capture"`
	Log     LogConfig     `yaml:"log"`
}

type AudioConfig struct {
	Backend         string        `yaml:"backend"` // "pulse", "portaudio" or "disabled"
	Device          string        `yaml:"device"`  // empty tries the default, then "0"
	SampleFrequency int           `yaml:"sampling_frequency"`
	ReopenBackoff   time.Duration `yaml:"reopen_backoff"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
}

// SamplingFrequency implements audio.Settings.
func (a AudioConfig) SamplingFrequency() int {
	return a.SampleFrequency
}

// PreferredDevice implements audio.Settings.
func (a AudioConfig) PreferredDevice() (string, bool) {
	return a.Device, a.Device != ""
}

type CaptureConfig struct {
	Frames   int           `yaml:"frames"`
	Interval time.Duration `yaml:"interval"`
	WAVPath  string        `yaml:"wav_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the config at path, or at DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, or to DefaultPath when path is empty
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case "pulse", "portaudio", "disabled":
	default:
		return fmt.Errorf("unknown audio backend %q", c.Audio.Backend)
	}
	if c.Audio.SampleFrequency <= 0 {
		return fmt.Errorf("sampling_frequency must be positive, got %d", c.Audio.SampleFrequency)
	}
	if c.Audio.ReopenBackoff < 0 || c.Audio.ReadTimeout < 0 {
		return fmt.Errorf("audio durations must not be negative")
	}
	if c.Capture.Frames <= 0 {
		return fmt.Errorf("capture frames must be positive, got %d", c.Capture.Frames)
	}
	if c.Capture.Interval < 0 {
		return fmt.Errorf("capture interval must not be negative")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Audio.Backend == "" {
		c.Audio.Backend = "pulse"
	}
	if c.Audio.SampleFrequency == 0 {
		c.Audio.SampleFrequency = audio.SampleRate
	}
	if c.Audio.ReadTimeout == 0 {
		c.Audio.ReadTimeout = 2 * time.Second
	}
	if c.Capture.Frames == 0 {
		c.Capture.Frames = 1024
	}
	if c.Capture.Interval == 0 && c.Capture.Frames > 0 {
		// One read per buffer period keeps pace with the device.
		c.Capture.Interval = time.Duration(c.Capture.Frames) * time.Second / audio.SampleRate
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// DefaultPath returns the XDG config file path, creating its directory
func DefaultPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appName, "config.yaml"))
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return path, nil
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const (
	configEnv         = "MONOSYNTH_CONFIG"
	defaultConfigPath = "~/.config/monosynth/config.json"
)

type Config struct {
	SampleRate   int    `json:"sampleRate"`
	Backend      string `json:"backend"`      // "speaker" or "oto"
	BufferMillis int    `json:"bufferMillis"` // backend buffer length
	Display      string `json:"display"`      // "sdl", "tui" or "none"

	MidiDevice  int `json:"midiDevice"`  // -1 for the default input
	MidiChannel int `json:"midiChannel"` // -1 listens on every channel

	// VelocityRange is the raw velocity that maps to full volume. MIDI
	// velocities top out at 127; some controllers are set up for 255.
	VelocityRange float64 `json:"velocityRange"`

	Volume     float64 `json:"volume"`
	Waveform   string  `json:"waveform"`
	Cutoff     float64 `json:"cutoff"`
	PulseWidth float64 `json:"pulseWidth"`
	Overflow   string  `json:"overflow"` // "reject" or "drop-oldest"

	CCPulseWidth int `json:"ccPulseWidth"`
	CCVolume     int `json:"ccVolume"`
	CCCutoff     int `json:"ccCutoff"`

	LogFile  string `json:"logFile,omitempty"`
	LogLevel string `json:"logLevel"`
}

func DefaultConfig() *Config {
	return &Config{
		SampleRate:    44100,
		Backend:       "speaker",
		BufferMillis:  50,
		Display:       "sdl",
		MidiDevice:    -1,
		MidiChannel:   -1,
		VelocityRange: 127,
		Volume:        1.0,
		Waveform:      "sine",
		Cutoff:        1.0,
		PulseWidth:    0,
		Overflow:      "reject",
		CCPulseWidth:  93,
		CCVolume:      17,
		CCCutoff:      74,
		LogLevel:      "info",
	}
}

// ConfigPath returns the config file location, honouring MONOSYNTH_CONFIG.
func ConfigPath() (string, error) {
	p := os.Getenv(configEnv)
	if p == "" {
		p = defaultConfigPath
	}
	return homedir.Expand(p)
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.Errorf("sampleRate must be positive, got %d", c.SampleRate)
	}
	switch c.Backend {
	case "speaker", "oto":
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.BufferMillis <= 0 {
		return errors.Errorf("bufferMillis must be positive, got %d", c.BufferMillis)
	}
	switch c.Display {
	case "sdl", "tui", "none":
	default:
		return errors.Errorf("unknown display %q", c.Display)
	}
	if c.MidiChannel < -1 || c.MidiChannel > 15 {
		return errors.Errorf("midiChannel must be -1 or 0-15, got %d", c.MidiChannel)
	}
	if c.VelocityRange <= 0 {
		return errors.Errorf("velocityRange must be positive, got %g", c.VelocityRange)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return errors.Errorf("volume must be in [0,1], got %g", c.Volume)
	}
	if _, err := ParseWaveKind(c.Waveform); err != nil {
		return err
	}
	if _, err := ParseOverflowPolicy(c.Overflow); err != nil {
		return err
	}
	for name, cc := range map[string]int{
		"ccPulseWidth": c.CCPulseWidth,
		"ccVolume":     c.CCVolume,
		"ccCutoff":     c.CCCutoff,
	} {
		if cc < -1 || cc > 127 {
			return errors.Errorf("%s must be -1 or 0-127, got %d", name, cc)
		}
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"waveform": "saw", "velocityRange": 255, "midiChannel": 3}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Waveform != "saw" || cfg.VelocityRange != 255 || cfg.MidiChannel != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SampleRate != 44100 || cfg.CCVolume != 17 || cfg.Overflow != "reject" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax":   `{"waveform": `,
		"wave":     `{"waveform": "noise"}`,
		"backend":  `{"backend": "alsa"}`,
		"display":  `{"display": "vga"}`,
		"channel":  `{"midiChannel": 16}`,
		"volume":   `{"volume": 1.5}`,
		"velocity": `{"velocityRange": 0}`,
		"cc":       `{"ccCutoff": 128}`,
		"overflow": `{"overflow": "grow"}`,
		"level":    `{"logLevel": "chatty"}`,
		"rate":     `{"sampleRate": 0}`,
	}
	for name, data := range cases {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.Backend = "oto"
	cfg.Display = "tui"
	cfg.Overflow = "drop-oldest"
	cfg.CCPulseWidth = -1
	cfg.LogFile = "/tmp/monosynth.log"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Fatalf("round trip: got %+v, want %+v", got, cfg)
	}
}

func TestConfigPathEnv(t *testing.T) {
	t.Setenv(configEnv, "/etc/monosynth.json")
	p, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/etc/monosynth.json" {
		t.Fatalf("path = %q", p)
	}

	t.Setenv(configEnv, "")
	p, err = ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "config.json" || p[0] == '~' {
		t.Fatalf("default path not expanded: %q", p)
	}
}

func TestSetupLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "synth.log")
	cfg.LogLevel = "debug"

	logger, closer, err := setupLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "note", 60)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("nothing was logged")
	}
}

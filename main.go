package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rakyll/portmidi"
)

const (
	statsInterval = time.Second
	demoStep      = 250 * time.Millisecond
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: monosynth [command]

commands:
  run          play from MIDI and the computer keyboard (default)
  demo         play an arpeggio
  console      control the synth from a prompt
  devices      list MIDI devices
  init-config  write the default config file`)
}

func main() {
	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(cmd); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	path, err := ConfigPath()
	if err != nil {
		return errors.Wrap(err, "config path")
	}

	switch cmd {
	case "init-config":
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("%s already exists", path)
		}
		if err := DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	case "devices":
		return listDevices()
	case "run", "demo", "console":
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return errors.Errorf("unknown command %q", cmd)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	if cfg.LogFile == "" && (cfg.Display == "tui" || cmd == "console") {
		// the terminal is taken
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := NewSynth(cfg)
	if err != nil {
		return err
	}
	d := NewDispatcher(s, cfg, logger)

	backend, err := NewAudioBackend(cfg, s)
	if err != nil {
		return err
	}
	if err := backend.Start(); err != nil {
		return err
	}
	defer backend.Close()
	logger.Info("audio started", "backend", cfg.Backend, "sampleRate", cfg.SampleRate, "bufferMillis", cfg.BufferMillis)

	go watchStats(ctx, s, logger)

	switch cmd {
	case "demo":
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		arp := NewArp(d, demoStep, 60, 64, 67, 72, 67, 64)
		arp.Legato = true
		go arp.Run(ctx)

		return show(ctx, cfg, s, d)
	case "console":
		return NewConsole(d, os.Stdin, os.Stdout).Run(ctx)
	default:
		return play(ctx, cfg, s, d, logger)
	}
}

// play listens to MIDI while the display runs. A missing MIDI device is
// reported but the computer keyboard still works.
func play(ctx context.Context, cfg *Config, s *Synth, d *Dispatcher, logger *slog.Logger) error {
	if err := portmidi.Initialize(); err != nil {
		logger.Warn("continuing without midi input", "err", errors.Wrap(err, "init portmidi"))
		return show(ctx, cfg, s, d)
	}
	defer portmidi.Terminate()

	ctx, cancel := context.WithCancel(ctx)

	mc, err := OpenController(cfg.MidiDevice, d, logger)
	if err != nil {
		logger.Warn("continuing without midi input", "err", err)
	} else {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mc.Run(ctx); err != nil {
				logger.Error("midi input stopped", "err", err)
			}
		}()
		defer mc.Shutdown()
		defer wg.Wait()
	}
	defer cancel()

	return show(ctx, cfg, s, d)
}

func show(ctx context.Context, cfg *Config, s *Synth, d *Dispatcher) error {
	kb := NewKeyboard(d)
	defer kb.ReleaseAll()

	switch cfg.Display {
	case "sdl":
		return draw(ctx, s, kb)
	case "tui":
		return runTUI(ctx, s, kb)
	default:
		<-ctx.Done()
		return nil
	}
}

func listDevices() error {
	if err := portmidi.Initialize(); err != nil {
		return errors.Wrap(err, "init portmidi")
	}
	defer portmidi.Terminate()

	for _, dev := range ListMidiDevices() {
		var dir string
		switch {
		case dev.Input && dev.Output:
			dir = "in/out"
		case dev.Input:
			dir = "in"
		default:
			dir = "out"
		}
		fmt.Printf("%s (%s)\n", dev, dir)
	}
	fmt.Println("default input:", int(portmidi.DefaultInputDeviceID()))
	return nil
}

// watchStats logs the conditions the audio thread can only count.
func watchStats(ctx context.Context, s *Synth, logger *slog.Logger) {
	t := time.NewTicker(statsInterval)
	defer t.Stop()

	var last Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		st := s.Stats()
		if st.RejectedPushes != last.RejectedPushes {
			logger.Warn("note memory full, notes rejected", "total", st.RejectedPushes)
		}
		if st.UntrackedReleases != last.UntrackedReleases {
			logger.Debug("release for note not held", "total", st.UntrackedReleases)
		}
		if st.DroppedEvents != last.DroppedEvents {
			logger.Warn("event queue overflowed", "total", st.DroppedEvents)
		}
		last = st
	}
}

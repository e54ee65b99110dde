package main

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

// AudioBackend pulls samples from the synth on its own goroutine.
type AudioBackend interface {
	Start() error
	Close() error
}

func NewAudioBackend(cfg *Config, s *Synth) (AudioBackend, error) {
	buffer := time.Duration(cfg.BufferMillis) * time.Millisecond
	switch cfg.Backend {
	case "speaker":
		return &SpeakerBackend{
			sr:     beep.SampleRate(cfg.SampleRate),
			buffer: buffer,
			synth:  s,
		}, nil
	case "oto":
		return NewOtoBackend(cfg.SampleRate, buffer, s)
	default:
		return nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}
}

// SpeakerBackend plays the synth as a beep.Streamer.
type SpeakerBackend struct {
	sr     beep.SampleRate
	buffer time.Duration
	synth  *Synth
}

func (sb *SpeakerBackend) Start() error {
	if err := speaker.Init(sb.sr, sb.sr.N(sb.buffer)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	speaker.Play(sb.synth)
	return nil
}

func (sb *SpeakerBackend) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// sampleReader adapts Synth.Render to io.Reader, producing mono little
// endian float32 samples.
type sampleReader struct {
	synth     *Synth
	sampleBuf []float32
}

func (r *sampleReader) Read(p []byte) (int, error) {
	numSamples := len(p) / 4

	// oto settles on one request size, so this only grows once
	if len(r.sampleBuf) < numSamples {
		r.sampleBuf = make([]float32, numSamples)
	}
	samples := r.sampleBuf[:numSamples]
	r.synth.Render(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	for i := numSamples * 4; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// OtoBackend drives the synth straight from an oto player, one channel of
// float32.
type OtoBackend struct {
	mutex  sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	reader *sampleReader
}

func NewOtoBackend(sampleRate int, buffer time.Duration, s *Synth) (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "create oto context")
	}
	<-ready

	return &OtoBackend{
		ctx:    ctx,
		reader: &sampleReader{synth: s, sampleBuf: make([]float32, 4096)},
	}, nil
}

func (ob *OtoBackend) Start() error {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()

	if ob.player != nil {
		return nil
	}
	ob.player = ob.ctx.NewPlayer(ob.reader)
	ob.player.Play()
	return nil
}

func (ob *OtoBackend) Close() error {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()

	if ob.player == nil {
		return nil
	}
	err := ob.player.Close()
	ob.player = nil
	return err
}

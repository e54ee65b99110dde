package main

import (
	"math/cmplx"
	"sync"

	"github.com/maddyblue/go-dsp/fft"
)

const recorderSize = 4096

// Recorder keeps the last len(buf) rendered samples for the display.
type Recorder struct {
	lk       sync.Mutex
	buf      []float32
	position int
}

func NewRecorder(size int) *Recorder {
	return &Recorder{
		buf: make([]float32, size),
	}
}

// Write is called from the audio thread. If a reader currently holds the
// buffer the samples are skipped rather than waiting for it.
func (r *Recorder) Write(samples []float32) {
	if !r.lk.TryLock() {
		return
	}
	defer r.lk.Unlock()

	for _, s := range samples {
		r.buf[r.position%len(r.buf)] = s
		r.position++
	}
	if r.position >= len(r.buf) {
		r.position %= len(r.buf)
	}
}

// GetSnapshot copies the recorded samples into buf, oldest first, and
// returns how many were copied.
func (r *Recorder) GetSnapshot(buf []float64) int {
	r.lk.Lock()
	defer r.lk.Unlock()

	lim := len(buf)
	if len(r.buf) < lim {
		lim = len(r.buf)
	}

	start := r.position + len(r.buf) - lim
	for i := 0; i < lim; i++ {
		ix := (start + i) % len(r.buf)
		buf[i] = float64(r.buf[ix])
	}

	return lim
}

// Spectrum returns the normalised magnitude spectrum of data, len(data)/2+1
// bins from DC to Nyquist.
func Spectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	fftResult := fft.FFTReal(data)

	magnitudeSpectrum := make([]float64, len(fftResult)/2+1)
	for i, c := range fftResult[:len(magnitudeSpectrum)] {
		magnitudeSpectrum[i] = cmplx.Abs(c) / float64(len(data))
	}
	return magnitudeSpectrum
}

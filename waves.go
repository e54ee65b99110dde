package main

import (
	"fmt"
	"math"
	"strings"
)

type OscFunc func(float64) float64

type WaveKind uint32

const (
	WaveSine WaveKind = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

var waveNames = []string{
	"SINE",
	"SQUARE",
	"SAW",
	"TRIANGLE",
}

func (k WaveKind) String() string {
	if int(k) >= len(waveNames) {
		return fmt.Sprintf("WaveKind(%d)", uint32(k))
	}
	return waveNames[k]
}

func ParseWaveKind(s string) (WaveKind, error) {
	for i, n := range waveNames {
		if strings.EqualFold(n, s) {
			return WaveKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

func sineOsc(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

func sawOsc(phase float64) float64 {
	return -1 + 2*phase
}

func triangleOsc(phase float64) float64 {
	return 1 - 4*math.Abs(phase-0.5)
}

// squareWave is high while the sine stays above pw: 0 gives 50% duty, 1
// gives 0% duty.
func squareWave(phase, pw float64) float64 {
	if sineOsc(phase) > pw {
		return 1
	}
	return -1
}

func squareOsc(pw float64) OscFunc {
	return func(phase float64) float64 {
		return squareWave(phase, pw)
	}
}

// fixedOscs holds the shapes that take no parameter.
var fixedOscs = [...]OscFunc{
	WaveSine:     sineOsc,
	WaveSaw:      sawOsc,
	WaveTriangle: triangleOsc,
}

// waveFunc returns the unit amplitude shape for kind.
func waveFunc(kind WaveKind, pulseWidth float64) OscFunc {
	if kind == WaveSquare {
		return squareOsc(pulseWidth)
	}
	if int(kind) >= len(fixedOscs) {
		panic(fmt.Sprintf("unknown waveform kind %d", uint32(kind)))
	}
	return fixedOscs[kind]
}

// Generate returns one sample of the given waveform. phase must already be
// in [0,1).
func Generate(kind WaveKind, amplitude, phase, pulseWidth float64) float64 {
	// square is kept off the closure path, this runs once per sample
	if kind == WaveSquare {
		return amplitude * squareWave(phase, pulseWidth)
	}
	return amplitude * waveFunc(kind, pulseWidth)(phase)
}

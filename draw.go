package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	screenWidth  = 800
	screenHeight = 600

	traceWaves     = 4 // cycles shown at 440 Hz
	traceAmplitude = 100

	captureSize = 2048
)

func statusLine(snap Snapshot) string {
	return fmt.Sprintf("%.0f %s   NOTE: %s   VOLUME: %d",
		snap.Frequency, snap.Wave, snap.NoteName, int(snap.Volume*100))
}

// wavePoints evaluates the current waveform across width pixels with its
// own phase, so the trace does not touch the audio oscillator.
func wavePoints(snap Snapshot, width int, amplitude float64) []float64 {
	waves := traceWaves * snap.Frequency / 440
	osc := waveFunc(snap.Wave, snap.PulseWidth)
	points := make([]float64, width)
	var phase float64
	for i := range points {
		points[i] = amplitude * osc(phase)
		phase += waves / float64(width)
		for phase >= 1 {
			phase -= 1
		}
	}
	return points
}

// draw runs the SDL window until it is closed or ctx ends.
func draw(ctx context.Context, s *Synth, kb *Keyboard) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("monosynth", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, screenWidth, screenHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return errors.Wrap(err, "create renderer")
	}
	defer renderer.Destroy()

	if err := renderer.SetLogicalSize(screenWidth, screenHeight); err != nil {
		return errors.Wrap(err, "set logical size")
	}

	buf := make([]float64, captureSize)
	var title string

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if event.Keysym.Sym == sdl.K_ESCAPE {
					return nil
				}
				r := rune(event.Keysym.Sym)
				if event.Type == sdl.KEYDOWN && event.Repeat == 0 {
					kb.Press(r)
				} else if event.Type == sdl.KEYUP {
					kb.Release(r)
				}
			}
		}

		snap := s.Snapshot()
		if t := statusLine(snap); t != title {
			title = t
			window.SetTitle(title)
		}

		n := s.Recorder().GetSnapshot(buf)
		spectrum := Spectrum(buf[:n])

		renderer.SetDrawColor(0, 0, 0, 255)
		renderer.Clear()

		renderer.SetDrawColor(0, 255, 0, 255)
		graphData(renderer, wavePoints(snap, screenWidth, traceAmplitude), 0, 20, screenWidth, 260, -traceAmplitude, traceAmplitude)

		renderer.SetDrawColor(255, 255, 255, 255)
		graphData(renderer, buf[n-min(n, 500):n], 50, 310, 700, 120, -1, 1)

		renderer.SetDrawColor(255, 0, 0, 255)
		if len(spectrum) > 0 {
			graphData(renderer, spectrum[:min(len(spectrum), 200)], 50, 460, 700, 120, 0, 0.5)
		}

		renderer.Present()
	}
}

// graphData plots dataPoints into the box at x,y scaled so that minval sits
// on the bottom edge and maxval on the top.
func graphData(renderer *sdl.Renderer, dataPoints []float64, x, y, width, height int32, minval, maxval float64) {
	if len(dataPoints) < 2 {
		return
	}

	spread := maxval - minval
	toY := func(v float64) int32 {
		v = clamp(v, minval, maxval)
		return y + height - int32((v-minval)/spread*float64(height))
	}

	for i := 0; i < len(dataPoints)-1; i++ {
		x1 := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		x2 := x + int32(float64(i+1)*float64(width)/float64(len(dataPoints)-1))
		renderer.DrawLine(x1, toY(dataPoints[i]), x2, toY(dataPoints[i+1]))
	}
}

package main

const (
	minCutoff = 0.01
	maxCutoff = 1.0
)

// LowpassFilter is four cascaded one-pole stages, roughly -24dB/octave.
type LowpassFilter struct {
	buf    [4]float64
	cutoff float64
}

func NewLowpassFilter() *LowpassFilter {
	return &LowpassFilter{cutoff: maxCutoff}
}

// SetCutoff clamps c into [0.01, 1.0].
func (lpf *LowpassFilter) SetCutoff(c float64) {
	lpf.cutoff = clamp(c, minCutoff, maxCutoff)
}

func (lpf *LowpassFilter) Cutoff() float64 {
	return lpf.cutoff
}

// Reset drops the stage memory, cutting any tail still ringing.
func (lpf *LowpassFilter) Reset() {
	lpf.buf = [4]float64{}
}

func (lpf *LowpassFilter) ProcessSample(in float64) float64 {
	// fully open
	if lpf.cutoff > 0.99 {
		return in
	}

	c := lpf.cutoff
	lpf.buf[0] += c * (in - lpf.buf[0])
	lpf.buf[1] += c * (lpf.buf[0] - lpf.buf[1])
	lpf.buf[2] += c * (lpf.buf[1] - lpf.buf[2])
	lpf.buf[3] += c * (lpf.buf[2] - lpf.buf[3])
	return lpf.buf[3]
}

package main

// Oscillator holds the state of the single voice. Phase is continuous for
// the lifetime of the oscillator; changing frequency never resets it.
type Oscillator struct {
	kind       WaveKind
	frequency  float64
	phase      float64
	pulseWidth float64
}

func NewOscillator(kind WaveKind) *Oscillator {
	return &Oscillator{
		kind:      kind,
		frequency: 440,
	}
}

func (o *Oscillator) Kind() WaveKind      { return o.kind }
func (o *Oscillator) Frequency() float64  { return o.frequency }
func (o *Oscillator) Phase() float64      { return o.phase }
func (o *Oscillator) PulseWidth() float64 { return o.pulseWidth }

func (o *Oscillator) SetKind(kind WaveKind) {
	o.kind = kind
}

func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
}

// SetPulseWidth clamps pw into [0,1].
func (o *Oscillator) SetPulseWidth(pw float64) {
	o.pulseWidth = clamp(pw, 0, 1)
}

// AdvancePhase moves the phase forward by one sample. A single wrap is
// enough as long as frequency <= sampleRate.
func (o *Oscillator) AdvancePhase(sampleRate float64) {
	o.phase += o.frequency / sampleRate
	if o.phase >= 1 {
		o.phase -= 1
	}
}

// NextSample returns the sample at the current phase without advancing it.
func (o *Oscillator) NextSample(amplitude float64) float64 {
	return Generate(o.kind, amplitude, o.phase, o.pulseWidth)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mapRange(v, vmin, vmax, dmin, dmax float64) float64 {
	return dmin + (v-vmin)*(dmax-dmin)/(vmax-vmin)
}

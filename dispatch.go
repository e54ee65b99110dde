package main

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// RawEvent is one record from the MIDI transport.
type RawEvent struct {
	Status    uint8
	Data1     uint8
	Data2     uint8
	Timestamp int64
}

func (ev RawEvent) Message() gomidi.Message {
	return gomidi.Message{ev.Status, ev.Data1, ev.Data2}
}

const ccAllNotesOff = 123

type Setter func(float64)

type knobBind struct {
	mapf func(uint8) float64
	sf   Setter
}

func (kb *knobBind) Update(val uint8) {
	kb.sf(kb.mapf(val))
}

// linearKnob maps a 7-bit controller value onto [0,1].
func linearKnob(v uint8) float64 {
	return mapRange(float64(v), 0, 127, 0, 1)
}

// Dispatcher turns MIDI messages into synth control calls.
type Dispatcher struct {
	Target *Synth

	// VelocityRange is the raw velocity that maps to 1.0.
	VelocityRange float64
	// Channel filters incoming messages; -1 accepts every channel.
	Channel int

	log *slog.Logger

	lk        sync.Mutex
	knobBinds map[uint8]*knobBind
}

func NewDispatcher(target *Synth, cfg *Config, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		Target:        target,
		VelocityRange: cfg.VelocityRange,
		Channel:       cfg.MidiChannel,
		log:           log,
		knobBinds:     make(map[uint8]*knobBind),
	}

	binds := []struct {
		cc    int
		param string
	}{
		{cfg.CCPulseWidth, "pw"},
		{cfg.CCVolume, "volume"},
		{cfg.CCCutoff, "cutoff"},
	}
	for _, b := range binds {
		if b.cc >= 0 {
			d.BindParam(uint8(b.cc), b.param)
		}
	}
	d.BindKnob(ccAllNotesOff, func(float64) { target.AllNotesOff() }, linearKnob)

	return d
}

func (d *Dispatcher) BindKnob(cc uint8, s Setter, rangeMapFunc func(uint8) float64) {
	if s == nil {
		d.log.Warn("nil setter passed to bind knob", "cc", cc)
		return
	}
	d.lk.Lock()
	defer d.lk.Unlock()
	d.knobBinds[cc] = &knobBind{
		mapf: rangeMapFunc,
		sf:   s,
	}
}

// paramSetter names the synth parameters a controller can drive.
func (d *Dispatcher) paramSetter(param string) Setter {
	s := d.Target
	switch param {
	case "pw":
		return func(v float64) { s.SetPulseWidth(v) }
	case "volume":
		return func(v float64) { s.SetVolume(v) }
	case "cutoff":
		return func(v float64) { s.SetCutoff(v) }
	}
	return nil
}

// BindParam maps cc linearly onto pw, volume or cutoff.
func (d *Dispatcher) BindParam(cc uint8, param string) error {
	sf := d.paramSetter(param)
	if sf == nil {
		return errors.Errorf("unknown parameter %q", param)
	}
	d.BindKnob(cc, sf, linearKnob)
	return nil
}

func (d *Dispatcher) UnbindKnob(cc uint8) {
	d.lk.Lock()
	defer d.lk.Unlock()
	delete(d.knobBinds, cc)
}

// NormalizeVelocity maps a raw velocity onto [0,1].
func (d *Dispatcher) NormalizeVelocity(v uint8) float64 {
	return clamp(mapRange(float64(v), 0, d.VelocityRange, 0, 1), 0, 1)
}

func (d *Dispatcher) Dispatch(ev RawEvent) {
	d.DispatchMessage(ev.Message())
}

func (d *Dispatcher) DispatchMessage(msg gomidi.Message) {
	var ch, key, vel, cc, val uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if !d.accepts(ch) {
			return
		}
		if !d.Target.NoteOn(MidiNote(key), d.NormalizeVelocity(vel)) {
			d.log.Warn("event queue full, note on dropped", "note", key)
		}
	case msg.GetNoteEnd(&ch, &key):
		if !d.accepts(ch) {
			return
		}
		if !d.Target.NoteOff(MidiNote(key)) {
			d.log.Warn("event queue full, note off dropped", "note", key)
		}
	case msg.GetControlChange(&ch, &cc, &val):
		if !d.accepts(ch) {
			return
		}
		d.lk.Lock()
		kb, ok := d.knobBinds[cc]
		d.lk.Unlock()
		if ok {
			kb.Update(val)
		} else {
			d.log.Debug("unbound controller", "cc", cc, "value", val)
		}
	default:
		d.log.Debug("ignored midi message", "msg", msg.String())
	}
}

func (d *Dispatcher) accepts(ch uint8) bool {
	return d.Channel < 0 || int(ch) == d.Channel
}

package main

import (
	"context"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Arp cycles through notes. With Legato set each note is released only
// after the next one has started, which leans on the note memory to hand
// the voice over without a gap.
type Arp struct {
	notes    []MidiNote
	duration time.Duration
	Legato   bool

	d *Dispatcher
}

func NewArp(d *Dispatcher, duration time.Duration, notes ...MidiNote) *Arp {
	return &Arp{
		notes:    notes,
		duration: duration,
		d:        d,
	}
}

// channel follows the dispatcher's filter so the pattern is never dropped.
func (a *Arp) channel() uint8 {
	if a.d.Channel < 0 {
		return 0
	}
	return uint8(a.d.Channel)
}

func (a *Arp) start(note MidiNote) {
	a.d.DispatchMessage(gomidi.NoteOn(a.channel(), uint8(note), keyboardVelocity))
}

func (a *Arp) stop(note MidiNote) {
	a.d.DispatchMessage(gomidi.NoteOff(a.channel(), uint8(note)))
}

// Run repeats the pattern until ctx is cancelled.
func (a *Arp) Run(ctx context.Context) {
	for ctx.Err() == nil {
		a.RunOnce(ctx)
	}
}

// RunOnce plays the pattern a single time. Every note started is released
// before it returns, even if ctx ends early.
func (a *Arp) RunOnce(ctx context.Context) {
	if len(a.notes) == 0 {
		return
	}

	var prev MidiNote
	var holding bool
	defer func() {
		if holding {
			a.stop(prev)
		}
	}()

	for _, note := range a.notes {
		a.start(note)
		if holding && a.Legato && prev != note {
			a.stop(prev)
		}
		prev, holding = note, true

		if !sleepCtx(ctx, a.duration) {
			return
		}

		if !a.Legato {
			a.stop(note)
			holding = false
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

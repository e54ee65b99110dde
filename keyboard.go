package main

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

const keyboardVelocity = 127

var keyboardNotes = map[rune]MidiNote{
	'a': 60,
	's': 62,
	'd': 64,
	'f': 65,
	'g': 67,
	'h': 69,
	'j': 71,
	'k': 72,
	'l': 74,
}

var waveKeys = map[rune]WaveKind{
	'1': WaveSine,
	'2': WaveSquare,
	'3': WaveSaw,
	'4': WaveTriangle,
}

// Keyboard plays the synth from a computer keyboard. Notes are sent through
// the dispatcher as ordinary MIDI messages.
type Keyboard struct {
	d      *Dispatcher
	octave int
	held   map[rune]MidiNote
}

func NewKeyboard(d *Dispatcher) *Keyboard {
	return &Keyboard{
		d:    d,
		held: make(map[rune]MidiNote),
	}
}

func (k *Keyboard) Octave() int { return k.octave }

func (k *Keyboard) channel() uint8 {
	if k.d.Channel < 0 {
		return 0
	}
	return uint8(k.d.Channel)
}

// Press handles a key going down and reports whether the key means
// anything. Repeats of a held key are ignored.
func (k *Keyboard) Press(r rune) bool {
	if kind, ok := waveKeys[r]; ok {
		k.d.Target.SetWave(kind)
		return true
	}

	switch r {
	case 'z':
		if k.octave > -4 {
			k.octave--
		}
		return true
	case 'x':
		if k.octave < 4 {
			k.octave++
		}
		return true
	}

	base, ok := keyboardNotes[r]
	if !ok {
		return false
	}
	if _, down := k.held[r]; down {
		return true
	}

	note := MidiNote(int(base) + 12*k.octave)
	k.held[r] = note
	k.d.DispatchMessage(gomidi.NoteOn(k.channel(), uint8(note), keyboardVelocity))
	return true
}

// Release stops the note that r started, even if the octave has changed
// since.
func (k *Keyboard) Release(r rune) bool {
	note, ok := k.held[r]
	if !ok {
		return false
	}
	delete(k.held, r)
	k.d.DispatchMessage(gomidi.NoteOff(k.channel(), uint8(note)))
	return true
}

// Toggle is for terminals, which never report key releases: the first
// press holds the note and the next one lets it go.
func (k *Keyboard) Toggle(r rune) bool {
	if _, down := k.held[r]; down {
		return k.Release(r)
	}
	return k.Press(r)
}

func (k *Keyboard) ReleaseAll() {
	for r := range k.held {
		k.Release(r)
	}
}

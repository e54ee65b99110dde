package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MidiNote identifies a key, 0-127. 69 is A4 at 440 Hz.
type MidiNote uint8

const (
	DefaultMidiNote MidiNote = 69
	MaxMidiNote     MidiNote = 127

	NoteMemoryMax = 32
)

var vals = []string{
	"C",
	"C#",
	"D",
	"D#",
	"E",
	"F",
	"F#",
	"G",
	"G#",
	"A",
	"A#",
	"B",
}

// NoteToFreq uses equal temperament relative to A4 = 440 Hz.
func NoteToFreq(note MidiNote) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}

func NoteName(note MidiNote) string {
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", vals[int(note)%len(vals)], octave)
}

// ParseNote accepts a MIDI number ("69") or a name with octave ("A4", "C#-1").
func ParseNote(s string) (MidiNote, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > int(MaxMidiNote) {
			return 0, errors.Errorf("note %d out of range", n)
		}
		return MidiNote(n), nil
	}

	up := strings.ToUpper(s)
	for i := len(vals) - 1; i >= 0; i-- {
		rest, ok := strings.CutPrefix(up, vals[i])
		if !ok {
			continue
		}
		octave, err := strconv.Atoi(rest)
		if err != nil {
			return 0, errors.Errorf("bad note %q", s)
		}
		n := (octave+1)*12 + i
		if n < 0 || n > int(MaxMidiNote) {
			return 0, errors.Errorf("note %q out of range", s)
		}
		return MidiNote(n), nil
	}
	return 0, errors.Errorf("bad note %q", s)
}

type PressedNote struct {
	Note     MidiNote
	Freq     float64
	Velocity float64 // 0.0 to 1.0
}

func NewPressedNote(note MidiNote, velocity float64) PressedNote {
	return PressedNote{
		Note:     note,
		Freq:     NoteToFreq(note),
		Velocity: clamp(velocity, 0, 1),
	}
}

var ErrNoteMemoryFull = errors.New("note memory full")

type OverflowPolicy int

const (
	// OverflowReject refuses the new note and keeps the held ones.
	OverflowReject OverflowPolicy = iota
	// OverflowDropOldest forgets the earliest held note to make room.
	OverflowDropOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowDropOldest:
		return "drop-oldest"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "reject":
		return OverflowReject, nil
	case "drop-oldest":
		return OverflowDropOldest, nil
	default:
		return 0, errors.Errorf("unknown overflow policy %q", s)
	}
}

// NoteMemory implements last note priority: held notes are kept in press
// order and the most recent one still held is the one that sounds.
//
// It is a fixed array so that pushes and removes never allocate on the
// audio thread.
type NoteMemory struct {
	Overflow OverflowPolicy

	count  int
	memory [NoteMemoryMax]PressedNote
}

func (nm *NoteMemory) Len() int { return nm.count }
func (nm *NoteMemory) Cap() int { return len(nm.memory) }

// Push appends note as the newest held note. A note that is already held
// is moved to the top instead of being stored twice.
func (nm *NoteMemory) Push(note PressedNote) error {
	nm.Remove(note.Note)

	if nm.count == len(nm.memory) {
		if nm.Overflow != OverflowDropOldest {
			return ErrNoteMemoryFull
		}
		nm.removeAt(0)
	}

	nm.memory[nm.count] = note
	nm.count++
	return nil
}

// Remove drops note from the memory, keeping the order of the others. It
// reports whether the note was held; releasing an untracked note is a no-op.
func (nm *NoteMemory) Remove(note MidiNote) bool {
	for i := 0; i < nm.count; i++ {
		if nm.memory[i].Note == note {
			nm.removeAt(i)
			return true
		}
	}
	return false
}

func (nm *NoteMemory) removeAt(i int) {
	copy(nm.memory[i:nm.count], nm.memory[i+1:nm.count])
	nm.count--
	nm.memory[nm.count] = PressedNote{}
}

func (nm *NoteMemory) Peek() (PressedNote, bool) {
	if nm.count == 0 {
		return PressedNote{}, false
	}
	return nm.memory[nm.count-1], true
}

// Notes returns a copy of the held notes, oldest first.
func (nm *NoteMemory) Notes() []PressedNote {
	out := make([]PressedNote, nm.count)
	copy(out, nm.memory[:nm.count])
	return out
}

func (nm *NoteMemory) Reset() {
	nm.count = 0
	nm.memory = [NoteMemoryMax]PressedNote{}
}

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type EventType uint8

const (
	EventNoteOn EventType = iota
	EventNoteOff
	EventSetWave
	EventSetPulseWidth
	EventSetVolume
	EventSetCutoff
	EventAllNotesOff
)

// Event is a control change travelling from the input side to the audio
// thread. Value carries the velocity for note-on, the WaveKind for
// EventSetWave and the normalised parameter for the other setters.
type Event struct {
	Type  EventType
	Note  MidiNote
	Value float64
}

func (e Event) String() string {
	switch e.Type {
	case EventNoteOn:
		return fmt.Sprintf("NoteOn{note:%d, vel:%.2f}", e.Note, e.Value)
	case EventNoteOff:
		return fmt.Sprintf("NoteOff{note:%d}", e.Note)
	case EventSetWave:
		return fmt.Sprintf("SetWave{%s}", WaveKind(e.Value))
	case EventSetPulseWidth:
		return fmt.Sprintf("SetPulseWidth{%.3f}", e.Value)
	case EventSetVolume:
		return fmt.Sprintf("SetVolume{%.3f}", e.Value)
	case EventSetCutoff:
		return fmt.Sprintf("SetCutoff{%.3f}", e.Value)
	case EventAllNotesOff:
		return "AllNotesOff{}"
	default:
		return fmt.Sprintf("Event{type:%d}", e.Type)
	}
}

const defaultQueueSize = 256

// EventQueue is a bounded ring handing events to a single consumer. The
// consumer side is lock free and never waits; producers are serialised
// with a mutex so the MIDI reader, the display loop and the console can
// all push.
type EventQueue struct {
	lk   sync.Mutex
	buf  []Event
	mask uint64

	head atomic.Uint64 // next slot to read, written by the consumer
	tail atomic.Uint64 // next slot to write, written by producers

	dropped atomic.Uint64
}

// NewEventQueue rounds size up to a power of two.
func NewEventQueue(size int) *EventQueue {
	n := 1
	for n < size {
		n <<= 1
	}
	return &EventQueue{
		buf:  make([]Event, n),
		mask: uint64(n - 1),
	}
}

// Push enqueues ev, returning false if the queue is full. Dropped events
// are counted.
func (q *EventQueue) Push(ev Event) bool {
	q.lk.Lock()
	defer q.lk.Unlock()

	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[t&q.mask] = ev
	q.tail.Store(t + 1)
	return true
}

// Pop must only be called from the consumer.
func (q *EventQueue) Pop() (Event, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return Event{}, false
	}
	ev := q.buf[h&q.mask]
	q.head.Store(h + 1)
	return ev, true
}

func (q *EventQueue) Len() int {
	h := q.head.Load()
	return int(q.tail.Load() - h)
}

func (q *EventQueue) Cap() int {
	return len(q.buf)
}

func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

package main

import (
	"math"
	"sync/atomic"
)

// renderChunk is the number of frames produced between recorder writes.
const renderChunk = 128

// Synth is the monophonic voice: note memory, oscillator and filter, fed by
// an event queue. Everything below the queue is owned by whichever goroutine
// calls Render; the rest of the program talks to it through the control
// methods and reads it back through Snapshot.
type Synth struct {
	sampleRate float64

	queue    *EventQueue
	recorder *Recorder

	// audio thread only
	notes   NoteMemory
	osc     *Oscillator
	filter  *LowpassFilter
	volume  float64
	monoBuf []float32

	published         published
	rejectedPushes    atomic.Uint64
	untrackedReleases atomic.Uint64
}

type published struct {
	frequency  atomic.Uint64
	volume     atomic.Uint64
	pulseWidth atomic.Uint64
	cutoff     atomic.Uint64
	wave       atomic.Uint32
	lastNote   atomic.Uint32
	held       atomic.Int32
	active     atomic.Bool
}

// Snapshot is a read-only view of the synth for displays.
type Snapshot struct {
	Frequency  float64
	Wave       WaveKind
	Note       MidiNote
	NoteName   string
	Active     bool
	Volume     float64
	PulseWidth float64
	Cutoff     float64
	Held       int
}

type Stats struct {
	RejectedPushes    uint64
	UntrackedReleases uint64
	DroppedEvents     uint64
}

func NewSynth(cfg *Config) (*Synth, error) {
	wave, err := ParseWaveKind(cfg.Waveform)
	if err != nil {
		return nil, err
	}
	overflow, err := ParseOverflowPolicy(cfg.Overflow)
	if err != nil {
		return nil, err
	}

	s := &Synth{
		sampleRate: float64(cfg.SampleRate),
		queue:      NewEventQueue(defaultQueueSize),
		recorder:   NewRecorder(recorderSize),
		osc:        NewOscillator(wave),
		filter:     NewLowpassFilter(),
		volume:     clamp(cfg.Volume, 0, 1),
		monoBuf:    make([]float32, 4096),
	}
	s.notes.Overflow = overflow
	s.osc.SetPulseWidth(cfg.PulseWidth)
	s.filter.SetCutoff(cfg.Cutoff)
	s.published.lastNote.Store(uint32(DefaultMidiNote))
	s.publish()

	return s, nil
}

func (s *Synth) SampleRate() float64 { return s.sampleRate }
func (s *Synth) Recorder() *Recorder  { return s.recorder }

func (s *Synth) NoteOn(note MidiNote, velocity float64) bool {
	if note > MaxMidiNote {
		return false
	}
	return s.queue.Push(Event{Type: EventNoteOn, Note: note, Value: velocity})
}

func (s *Synth) NoteOff(note MidiNote) bool {
	if note > MaxMidiNote {
		return false
	}
	return s.queue.Push(Event{Type: EventNoteOff, Note: note})
}

func (s *Synth) SetWave(kind WaveKind) bool {
	if kind > WaveTriangle {
		return false
	}
	return s.queue.Push(Event{Type: EventSetWave, Value: float64(kind)})
}

func (s *Synth) SetPulseWidth(pw float64) bool {
	return s.queue.Push(Event{Type: EventSetPulseWidth, Value: pw})
}

func (s *Synth) SetVolume(v float64) bool {
	return s.queue.Push(Event{Type: EventSetVolume, Value: v})
}

func (s *Synth) SetCutoff(c float64) bool {
	return s.queue.Push(Event{Type: EventSetCutoff, Value: c})
}

// AllNotesOff clears the note memory, for stuck notes.
func (s *Synth) AllNotesOff() bool {
	return s.queue.Push(Event{Type: EventAllNotesOff})
}

func (s *Synth) apply(ev Event) {
	switch ev.Type {
	case EventNoteOn:
		if err := s.notes.Push(NewPressedNote(ev.Note, ev.Value)); err != nil {
			s.rejectedPushes.Add(1)
			return
		}
		s.published.lastNote.Store(uint32(ev.Note))
	case EventNoteOff:
		if !s.notes.Remove(ev.Note) {
			s.untrackedReleases.Add(1)
		}
	case EventSetWave:
		s.osc.SetKind(WaveKind(ev.Value))
	case EventSetPulseWidth:
		s.osc.SetPulseWidth(ev.Value)
	case EventSetVolume:
		s.volume = clamp(ev.Value, 0, 1)
	case EventSetCutoff:
		s.filter.SetCutoff(ev.Value)
	case EventAllNotesOff:
		s.notes.Reset()
		s.filter.Reset()
	}
}

// Render fills out with mono samples. It is the audio callback: it must
// only ever be called from one goroutine at a time, and it neither blocks
// nor allocates.
func (s *Synth) Render(out []float32) {
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		s.apply(ev)
	}

	note, ok := s.notes.Peek()
	if !ok {
		// silence still goes through the filter so a release decays
		for i := range out {
			out[i] = float32(s.filter.ProcessSample(0))
		}
		s.recorder.Write(out)
		s.publish()
		return
	}

	amplitude := note.Velocity * s.volume
	s.osc.SetFrequency(note.Freq)

	for off := 0; off < len(out); off += renderChunk {
		chunk := out[off:min(off+renderChunk, len(out))]
		for i := range chunk {
			v := s.osc.NextSample(amplitude)
			s.osc.AdvancePhase(s.sampleRate)
			chunk[i] = float32(s.filter.ProcessSample(v))
		}
		s.recorder.Write(chunk)
	}

	s.publish()
}

func (s *Synth) publish() {
	note, ok := s.notes.Peek()
	if ok {
		s.published.lastNote.Store(uint32(note.Note))
	}
	s.published.active.Store(ok)
	s.published.held.Store(int32(s.notes.Len()))
	s.published.frequency.Store(math.Float64bits(s.osc.Frequency()))
	s.published.volume.Store(math.Float64bits(s.volume))
	s.published.pulseWidth.Store(math.Float64bits(s.osc.PulseWidth()))
	s.published.cutoff.Store(math.Float64bits(s.filter.Cutoff()))
	s.published.wave.Store(uint32(s.osc.Kind()))
}

// Snapshot may be called from any goroutine. It reflects the state as of
// the last Render.
func (s *Synth) Snapshot() Snapshot {
	note := MidiNote(s.published.lastNote.Load())
	return Snapshot{
		Frequency:  math.Float64frombits(s.published.frequency.Load()),
		Wave:       WaveKind(s.published.wave.Load()),
		Note:       note,
		NoteName:   NoteName(note),
		Active:     s.published.active.Load(),
		Volume:     math.Float64frombits(s.published.volume.Load()),
		PulseWidth: math.Float64frombits(s.published.pulseWidth.Load()),
		Cutoff:     math.Float64frombits(s.published.cutoff.Load()),
		Held:       int(s.published.held.Load()),
	}
}

func (s *Synth) Stats() Stats {
	return Stats{
		RejectedPushes:    s.rejectedPushes.Load(),
		UntrackedReleases: s.untrackedReleases.Load(),
		DroppedEvents:     s.queue.Dropped(),
	}
}

// Stream lets the synth be played by beep's speaker.
func (s *Synth) Stream(samples [][2]float64) (int, bool) {
	if len(s.monoBuf) < len(samples) {
		s.monoBuf = make([]float32, len(samples))
	}
	buf := s.monoBuf[:len(samples)]
	s.Render(buf)

	for i, v := range buf {
		samples[i][0] = float64(v)
		samples[i][1] = float64(v)
	}
	return len(samples), true
}

func (s *Synth) Err() error {
	return nil
}

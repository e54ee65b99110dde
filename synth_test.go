package main

import (
	"math"
	"testing"
)

func newTestSynth(t *testing.T) *Synth {
	t.Helper()
	s, err := NewSynth(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// peek reads the audio-side note memory; only safe while no Render runs.
func peek(s *Synth) (PressedNote, bool) {
	return s.notes.Peek()
}

func TestSynthLastNoteScenario(t *testing.T) {
	s := newTestSynth(t)
	buf := make([]float32, 64)

	s.NoteOn(69, 1.0)
	s.Render(buf)
	n, ok := peek(s)
	if !ok || n.Note != 69 || math.Abs(n.Freq-440) > 0.01 || n.Velocity != 1.0 {
		t.Fatalf("after 69: %+v", n)
	}

	s.NoteOn(72, 0.5)
	s.Render(buf)
	n, ok = peek(s)
	if !ok || n.Note != 72 || math.Abs(n.Freq-523.25) > 0.01 || n.Velocity != 0.5 {
		t.Fatalf("after 72: %+v", n)
	}

	s.NoteOff(72)
	s.Render(buf)
	n, ok = peek(s)
	if !ok || n.Note != 69 || math.Abs(n.Freq-440) > 0.01 || n.Velocity != 1.0 {
		t.Fatalf("after releasing 72: %+v", n)
	}

	snap := s.Snapshot()
	if !snap.Active || snap.Note != 69 || snap.NoteName != "A4" || math.Abs(snap.Frequency-440) > 0.01 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSynthSilentWhenEmpty(t *testing.T) {
	s := newTestSynth(t)
	buf := make([]float32, 300)
	for i := range buf {
		buf[i] = 7
	}
	s.Render(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %g, want silence", i, v)
		}
	}

	s.NoteOn(60, 1)
	s.NoteOff(60)
	s.Render(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("after release: sample %d = %g", i, v)
		}
	}
	if s.Snapshot().Active {
		t.Fatal("snapshot reports an active note")
	}
}

func TestSynthRendersSine(t *testing.T) {
	s := newTestSynth(t)
	s.NoteOn(69, 1)

	buf := make([]float32, 1000)
	s.Render(buf)

	for i, v := range buf {
		want := math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
		if math.Abs(float64(v)-want) > 1e-4 {
			t.Fatalf("sample %d = %g, want %g", i, v, want)
		}
	}
}

func TestSynthAmplitude(t *testing.T) {
	s := newTestSynth(t)
	s.SetVolume(0.5)
	s.SetWave(WaveSquare)
	s.NoteOn(60, 0.5)

	buf := make([]float32, 2000)
	s.Render(buf)
	for i, v := range buf {
		if math.Abs(math.Abs(float64(v))-0.25) > 1e-6 {
			t.Fatalf("sample %d = %g, want +-0.25", i, v)
		}
	}
}

// Rendering in one call or in many odd sized calls must give the same
// signal: the phase carries over buffer and chunk boundaries.
func TestSynthPhaseContinuity(t *testing.T) {
	const total = 5000

	whole := newTestSynth(t)
	whole.NoteOn(64, 1)
	want := make([]float32, total)
	whole.Render(want)

	split := newTestSynth(t)
	split.NoteOn(64, 1)
	got := make([]float32, 0, total)
	sizes := []int{1, 127, 128, 129, 333, 64, 7}
	for i := 0; len(got) < total; i++ {
		n := min(sizes[i%len(sizes)], total-len(got))
		buf := make([]float32, n)
		split.Render(buf)
		got = append(got, buf...)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d differs: %g vs %g", i, got[i], want[i])
		}
	}
}

// A note change keeps the phase: the first sample at the new pitch picks
// up where the old pitch left off.
func TestSynthNoteChangeKeepsPhase(t *testing.T) {
	s := newTestSynth(t)
	s.SetWave(WaveSaw)
	s.NoteOn(60, 1)

	buf := make([]float32, 100)
	s.Render(buf)
	phase := s.osc.Phase()

	s.NoteOn(67, 1)
	s.Render(buf[:1])
	if want := Generate(WaveSaw, 1, phase, 0); math.Abs(float64(buf[0])-want) > 1e-6 {
		t.Fatalf("first sample after note change = %g, want %g", buf[0], want)
	}
}

func TestSynthRejectsPastCapacity(t *testing.T) {
	s := newTestSynth(t)
	for i := 0; i < NoteMemoryMax+3; i++ {
		s.NoteOn(MidiNote(20+i), 1)
	}
	s.Render(make([]float32, 16))

	if s.Snapshot().Held != NoteMemoryMax {
		t.Fatalf("held = %d, want %d", s.Snapshot().Held, NoteMemoryMax)
	}
	if st := s.Stats(); st.RejectedPushes != 3 {
		t.Fatalf("rejected = %d, want 3", st.RejectedPushes)
	}
	if n, _ := peek(s); n.Note != MidiNote(20+NoteMemoryMax-1) {
		t.Fatalf("top = %d", n.Note)
	}
}

func TestSynthUntrackedRelease(t *testing.T) {
	s := newTestSynth(t)
	s.NoteOn(60, 1)
	s.NoteOff(61)
	s.NoteOff(60)
	s.NoteOff(60)
	s.Render(make([]float32, 16))

	if st := s.Stats(); st.UntrackedReleases != 2 {
		t.Fatalf("untracked = %d, want 2", st.UntrackedReleases)
	}
	if _, ok := peek(s); ok {
		t.Fatal("memory should be empty")
	}
}

func TestSynthParameters(t *testing.T) {
	s := newTestSynth(t)
	s.SetWave(WaveTriangle)
	s.SetPulseWidth(0.4)
	s.SetVolume(2)
	s.SetCutoff(0.3)
	s.Render(make([]float32, 8))

	snap := s.Snapshot()
	if snap.Wave != WaveTriangle || snap.PulseWidth != 0.4 || snap.Volume != 1 || snap.Cutoff != 0.3 {
		t.Fatalf("snapshot = %+v", snap)
	}

	if s.SetWave(WaveKind(9)) {
		t.Fatal("invalid wave kind was queued")
	}
	if s.NoteOn(128, 1) {
		t.Fatal("out of range note was queued")
	}
}

func TestSynthAllNotesOff(t *testing.T) {
	s := newTestSynth(t)
	s.NoteOn(60, 1)
	s.NoteOn(64, 1)
	s.AllNotesOff()
	s.Render(make([]float32, 8))
	if s.Snapshot().Held != 0 {
		t.Fatal("notes still held")
	}
}

func TestSynthFilterApplied(t *testing.T) {
	s := newTestSynth(t)
	s.SetWave(WaveSquare)
	s.SetCutoff(0.05)
	s.NoteOn(69, 1)

	buf := make([]float32, 4000)
	s.Render(buf)
	var peak float64
	for _, v := range buf[2000:] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak >= 0.99 {
		t.Fatalf("filtered square still reaches %g", peak)
	}
}

func TestSynthStream(t *testing.T) {
	s := newTestSynth(t)
	s.NoteOn(69, 1)

	samples := make([][2]float64, 8192)
	n, ok := s.Stream(samples)
	if n != len(samples) || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	for i := range samples {
		if samples[i][0] != samples[i][1] {
			t.Fatalf("channels differ at %d", i)
		}
	}
	if math.Abs(samples[25][0]-math.Sin(2*math.Pi*440*25/44100)) > 1e-4 {
		t.Fatalf("sample 25 = %g", samples[25][0])
	}
	if s.Err() != nil {
		t.Fatal(s.Err())
	}
}

func TestSynthRecordsOutput(t *testing.T) {
	s := newTestSynth(t)
	s.NoteOn(69, 1)
	buf := make([]float32, 256)
	s.Render(buf)

	snap := make([]float64, 256)
	n := s.Recorder().GetSnapshot(snap)
	if n != 256 {
		t.Fatalf("snapshot len = %d", n)
	}
	for i := range buf {
		if snap[i] != float64(buf[i]) {
			t.Fatalf("recorded sample %d = %g, want %g", i, snap[i], buf[i])
		}
	}
}

func TestNewSynthBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waveform = "noise"
	if _, err := NewSynth(cfg); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}

// Releasing the last note at a low cutoff lets the filter tail ring out
// instead of stepping straight to zero.
func TestSynthReleaseDecays(t *testing.T) {
	s := newTestSynth(t)
	s.SetCutoff(0.05)
	s.NoteOn(69, 1)
	s.Render(make([]float32, 2000))

	s.NoteOff(69)
	tail := make([]float32, 400)
	s.Render(tail)
	if tail[0] == 0 {
		t.Fatal("output dropped to zero on release")
	}
	if math.Abs(float64(tail[len(tail)-1])) > 1e-3 {
		t.Fatalf("tail did not decay: %g", tail[len(tail)-1])
	}
}

func TestSynthAllNotesOffCutsTail(t *testing.T) {
	s := newTestSynth(t)
	s.SetCutoff(0.05)
	s.NoteOn(69, 1)
	s.Render(make([]float32, 2000))

	s.AllNotesOff()
	buf := make([]float32, 64)
	s.Render(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %g after all notes off", i, v)
		}
	}
}

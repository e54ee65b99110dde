package main

import (
	"context"
	"testing"
	"time"
)

func TestArpReleasesEverything(t *testing.T) {
	for _, legato := range []bool{false, true} {
		d := newTestDispatcher(t, DefaultConfig())
		arp := NewArp(d, time.Millisecond, 60, 64, 64, 67)
		arp.Legato = legato
		arp.RunOnce(context.Background())

		s := d.Target
		settle(s)
		if _, ok := peek(s); ok {
			t.Fatalf("legato %v: a note is still held", legato)
		}
		if st := s.Stats(); st.UntrackedReleases != 0 || st.RejectedPushes != 0 {
			t.Fatalf("legato %v: stats %+v", legato, st)
		}
	}
}

// With legato the next note starts before the previous one stops, so the
// memory is never empty between notes.
func TestArpLegatoOverlaps(t *testing.T) {
	d := newTestDispatcher(t, DefaultConfig())
	s := d.Target
	arp := NewArp(d, time.Millisecond, 60, 64)
	arp.Legato = true

	arp.RunOnce(context.Background())

	var events []Event
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	want := []Event{
		{Type: EventNoteOn, Note: 60, Value: 1},
		{Type: EventNoteOn, Note: 64, Value: 1},
		{Type: EventNoteOff, Note: 60},
		{Type: EventNoteOff, Note: 64},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestArpStopsOnCancel(t *testing.T) {
	d := newTestDispatcher(t, DefaultConfig())
	arp := NewArp(d, time.Hour, 60, 62)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		arp.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("arp did not stop")
	}

	settle(d.Target)
	if _, ok := peek(d.Target); ok {
		t.Fatal("cancelled arp left a note held")
	}
}

func TestArpFollowsDispatcherChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MidiChannel = 2
	d := newTestDispatcher(t, cfg)
	s := d.Target

	arp := NewArp(d, time.Millisecond, 60, 67)
	arp.Legato = true
	arp.RunOnce(context.Background())

	var ons int
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		if ev.Type == EventNoteOn {
			ons++
		}
	}
	if ons != 2 {
		t.Fatalf("%d note ons reached the synth on channel 2, want 2", ons)
	}
}

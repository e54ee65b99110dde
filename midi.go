package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/rakyll/portmidi"
)

const (
	midiBufferSize   = 1024
	midiPollInterval = time.Millisecond
)

// MidiController reads a portmidi input stream and feeds the dispatcher.
type MidiController struct {
	Target *Dispatcher

	id     portmidi.DeviceID
	stream *portmidi.Stream
	log    *slog.Logger
}

type MidiDevice struct {
	ID        int
	Interface string
	Name      string
	Input     bool
	Output    bool
}

func (d MidiDevice) String() string {
	return fmt.Sprintf("%d: %s - %s", d.ID, d.Interface, d.Name)
}

// ListMidiDevices requires portmidi to be initialised.
func ListMidiDevices() []MidiDevice {
	var out []MidiDevice
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info == nil {
			continue
		}
		out = append(out, MidiDevice{
			ID:        i,
			Interface: info.Interface,
			Name:      info.Name,
			Input:     info.IsInputAvailable,
			Output:    info.IsOutputAvailable,
		})
	}
	return out
}

// OpenController opens device id, or the default input if id is negative.
// On failure the available inputs are logged.
func OpenController(id int, target *Dispatcher, log *slog.Logger) (*MidiController, error) {
	devID := portmidi.DeviceID(id)
	if id < 0 {
		devID = portmidi.DefaultInputDeviceID()
	}

	in, err := portmidi.NewInputStream(devID, midiBufferSize)
	if err != nil {
		log.Error("couldn't open midi device", "device", int(devID), "err", err)
		for _, dev := range ListMidiDevices() {
			if dev.Input {
				log.Info("available midi input", "device", dev.String())
			}
		}
		return nil, errors.Wrapf(err, "open midi device %d", int(devID))
	}

	log.Info("midi device opened", "device", int(devID))

	return &MidiController{
		Target: target,
		id:     devID,
		stream: in,
		log:    log,
	}, nil
}

// Run polls the stream until ctx is cancelled.
func (mc *MidiController) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ready, err := mc.stream.Poll()
		if err != nil {
			return errors.Wrap(err, "poll midi")
		}
		if !ready {
			time.Sleep(midiPollInterval)
			continue
		}

		events, err := mc.stream.Read(midiBufferSize)
		if err != nil {
			return errors.Wrap(err, "read midi")
		}

		for _, event := range events {
			mc.Target.Dispatch(RawEvent{
				Status:    uint8(event.Status),
				Data1:     uint8(event.Data1),
				Data2:     uint8(event.Data2),
				Timestamp: int64(event.Timestamp),
			})
		}
	}
}

func (mc *MidiController) Shutdown() error {
	return mc.stream.Close()
}

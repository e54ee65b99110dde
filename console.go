package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"golang.org/x/term"
)

var errExit = errors.New("exit")

var consoleCommands = []prompt.Suggest{
	{Text: "wave", Description: "wave sine|square|saw|triangle"},
	{Text: "volume", Description: "volume 0..1"},
	{Text: "pw", Description: "pulse width 0..1"},
	{Text: "cutoff", Description: "filter cutoff 0.01..1"},
	{Text: "on", Description: "on <note> [velocity]"},
	{Text: "off", Description: "off <note>"},
	{Text: "bind", Description: "bind <cc> pw|volume|cutoff"},
	{Text: "unbind", Description: "unbind <cc>"},
	{Text: "panic", Description: "release every note"},
	{Text: "status", Description: "show the synth state"},
	{Text: "exit", Description: "leave the console"},
}

// Console is a line oriented control surface for the synth.
type Console struct {
	d   *Dispatcher
	in  io.Reader
	out io.Writer
}

func NewConsole(d *Dispatcher, in io.Reader, out io.Writer) *Console {
	return &Console{d: d, in: in, out: out}
}

func (c *Console) channel() uint8 {
	if c.d.Channel < 0 {
		return 0
	}
	return uint8(c.d.Channel)
}

func parseUnit(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one value")
	}
	return strconv.ParseFloat(args[0], 64)
}

func parseCC(s string) (uint8, error) {
	cc, err := strconv.ParseUint(s, 10, 8)
	if err != nil || cc > 127 {
		return 0, errors.Errorf("bad controller %q", s)
	}
	return uint8(cc), nil
}

func (c *Console) ProcessCmd(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}

	s := c.d.Target
	cmd, args := tokens[0], tokens[1:]
	switch cmd {
	case "exit", "quit":
		return errExit
	case "wave":
		if len(args) != 1 {
			return errors.New("usage: wave sine|square|saw|triangle")
		}
		kind, err := ParseWaveKind(args[0])
		if err != nil {
			return err
		}
		s.SetWave(kind)
	case "volume":
		v, err := parseUnit(args)
		if err != nil {
			return errors.Wrap(err, "volume")
		}
		s.SetVolume(v)
	case "pw":
		v, err := parseUnit(args)
		if err != nil {
			return errors.Wrap(err, "pw")
		}
		s.SetPulseWidth(v)
	case "cutoff":
		v, err := parseUnit(args)
		if err != nil {
			return errors.Wrap(err, "cutoff")
		}
		s.SetCutoff(v)
	case "on":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: on <note> [velocity]")
		}
		note, err := ParseNote(args[0])
		if err != nil {
			return err
		}
		vel := uint64(keyboardVelocity)
		if len(args) == 2 {
			vel, err = strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return errors.Wrap(err, "velocity")
			}
			if vel > 127 {
				return errors.Errorf("velocity %d out of range", vel)
			}
		}
		c.d.DispatchMessage(gomidi.NoteOn(c.channel(), uint8(note), uint8(vel)))
	case "off":
		if len(args) != 1 {
			return errors.New("usage: off <note>")
		}
		note, err := ParseNote(args[0])
		if err != nil {
			return err
		}
		c.d.DispatchMessage(gomidi.NoteOff(c.channel(), uint8(note)))
	case "bind":
		if len(args) != 2 {
			return errors.New("usage: bind <cc> pw|volume|cutoff")
		}
		cc, err := parseCC(args[0])
		if err != nil {
			return err
		}
		return c.d.BindParam(cc, args[1])
	case "unbind":
		if len(args) != 1 {
			return errors.New("usage: unbind <cc>")
		}
		cc, err := parseCC(args[0])
		if err != nil {
			return err
		}
		c.d.UnbindKnob(cc)
	case "panic":
		s.AllNotesOff()
	case "status":
		st := s.Stats()
		fmt.Fprintln(c.out, statusLine(s.Snapshot()))
		fmt.Fprintf(c.out, "rejected %d, untracked %d, dropped %d\n", st.RejectedPushes, st.UntrackedReleases, st.DroppedEvents)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
	return nil
}

func completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(consoleCommands, d.GetWordBeforeCursor(), true)
}

func (c *Console) interactive() bool {
	f, ok := c.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readLines feeds lines to the console one at a time. It waits on next
// before reading again so the prompt is not redrawn over command output.
func (c *Console) readLines(ctx context.Context, lines chan<- string, next <-chan struct{}, errc chan<- error) {
	defer close(lines)

	read := func() (string, bool) {
		return prompt.Input("> ", completer), true
	}
	if !c.interactive() {
		scanner := bufio.NewScanner(c.in)
		read = func() (string, bool) {
			if !scanner.Scan() {
				errc <- scanner.Err()
				return "", false
			}
			return scanner.Text(), true
		}
	}

	for {
		line, ok := read()
		if !ok {
			return
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
		if _, ok := <-next; !ok {
			return
		}
	}
}

// Run reads commands until exit, EOF or ctx ends. Without a terminal it
// falls back to plain line reading so scripts can be piped in. A reader
// blocked on input is abandoned when ctx ends.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	next := make(chan struct{})
	errc := make(chan error, 1)
	defer close(next)

	go c.readLines(ctx, lines, next, errc)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if err := c.ProcessCmd(line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintln(c.out, "ERROR: ", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case next <- struct{}{}:
		}
	}
}

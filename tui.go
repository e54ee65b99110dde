package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

const (
	tuiRefresh     = 50 * time.Millisecond
	tuiTraceWidth  = 64
	tuiTraceHeight = 9
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	traceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type tickMsg time.Time

type tuiModel struct {
	synth *Synth
	kb    *Keyboard
	snap  Snapshot
	stats Stats
}

func newTUIModel(s *Synth, kb *Keyboard) tuiModel {
	return tuiModel{
		synth: s,
		kb:    kb,
		snap:  s.Snapshot(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tuiRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "q":
			m.kb.ReleaseAll()
			return m, tea.Quit
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			m.kb.Toggle(msg.Runes[0])
		}
	case tickMsg:
		m.snap = m.synth.Snapshot()
		m.stats = m.synth.Stats()
		return m, tick()
	}
	return m, nil
}

// asciiTrace draws the waveform as rows of text, top row first.
func asciiTrace(points []float64, height int) []string {
	rows := make([][]rune, height)
	for i := range rows {
		rows[i] = []rune(strings.Repeat(" ", len(points)))
	}
	for x, v := range points {
		y := int((1 - (clamp(v, -1, 1)+1)/2) * float64(height-1))
		rows[y][x] = '•'
	}
	out := make([]string, height)
	for i, r := range rows {
		out[i] = string(r)
	}
	return out
}

func (m tuiModel) View() string {
	header := headerStyle.Render(statusLine(m.snap))

	trace := traceStyle.Render(strings.Join(asciiTrace(wavePoints(m.snap, tuiTraceWidth, 1), tuiTraceHeight), "\n"))

	state := "silent"
	if m.snap.Active {
		state = fmt.Sprintf("playing, %d held", m.snap.Held)
	}
	status := statusStyle.Render(fmt.Sprintf("%s | pw %.2f | cutoff %.2f | octave %+d | rejected %d | untracked %d | dropped %d",
		state, m.snap.PulseWidth, m.snap.Cutoff, m.kb.Octave(),
		m.stats.RejectedPushes, m.stats.UntrackedReleases, m.stats.DroppedEvents))

	help := dimStyle.Render("a-l toggle notes  z/x octave  1-4 waveform  q quit")

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", trace, "", status, help)) + "\n"
}

func runTUI(ctx context.Context, s *Synth, kb *Keyboard) error {
	p := tea.NewProgram(newTUIModel(s, kb), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run tui")
	}
	return nil
}

// Package progress renders a bubbletea spinner + progress bar bound to
// TransferStats for fetch/mirror. This is deliberately thin: a spinner, a
// bar, a speed/ETA line, not a full terminal HUD.
package progress

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// StatsMsg carries one TransferStats update into the bubbletea program.
type StatsMsg model.TransferStats

// DoneMsg signals the transfer finished, successfully or not.
type DoneMsg struct{ Err error }

// Model is the bubbletea model for one fetch/mirror's live display.
type Model struct {
	spinner spinner.Model
	bar     progress.Model
	stats   model.TransferStats
	done    bool
	err     error
	Updates <-chan tea.Msg
}

// New builds a Model that reads updates from the given channel.
func New(updates <-chan tea.Msg) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		Updates: updates,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForMsg(m.Updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case StatsMsg:
		m.stats = model.TransferStats(v)
		return m, waitForMsg(m.Updates)
	case DoneMsg:
		m.done = true
		m.err = v.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	case tea.KeyMsg:
		if v.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("failed: %v\n", m.err)
		}
		return doneStyle.Render("done") + "\n"
	}

	speed := bandwidth.FormatSpeed(m.stats.SpeedBps)
	label := labelStyle.Render(m.stats.Phase.String())

	if m.stats.BytesTotal > 0 {
		pct := float64(m.stats.BytesDone) / float64(m.stats.BytesTotal)
		return fmt.Sprintf("%s %s  %s  %s\n", m.spinner.View(), label, m.bar.ViewAs(pct), speed)
	}
	return fmt.Sprintf("%s %s  %d bytes  %s\n", m.spinner.View(), label, m.stats.BytesDone, speed)
}

func waitForMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// EstimateETA renders a human ETA string from bytes remaining and a
// current speed, shown alongside the bar for known-size transfers.
func EstimateETA(remaining int64, bps float64) string {
	if bps <= 0 || remaining <= 0 {
		return "--"
	}
	seconds := float64(remaining) / bps
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fluxion-dl/fluxion/internal/fluxion/engine"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/progress"
)

// runWithProgress runs op, rendering its TransferStats updates through the
// bubbletea spinner+bar model unless --plain or --quiet was given, in
// which case op runs with a plain fmt-based sink or none at all.
func runWithProgress(op func(sink engine.ProgressSink) error) error {
	if quiet {
		return op(nil)
	}
	if plain {
		return op(printProgress)
	}

	updates := make(chan tea.Msg, 16)
	sink := func(stats model.TransferStats) {
		select {
		case updates <- progress.StatsMsg(stats):
		default:
		}
	}

	program := tea.NewProgram(progress.New(updates))

	errCh := make(chan error, 1)
	go func() {
		err := op(sink)
		updates <- progress.DoneMsg{Err: err}
		errCh <- err
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	return <-errCh
}

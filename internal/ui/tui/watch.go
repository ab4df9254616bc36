package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kzgceremony/seqdeploy/internal/probe"
)

// RoundFunc runs one probe round.
type RoundFunc func(ctx context.Context) []probe.Result

// RunWatchTUI probes every interval and shows the results in a dashboard
// until the user quits or ctx is cancelled. It returns the final model.
func RunWatchTUI(ctx context.Context, round RoundFunc, app, host string, interval time.Duration) (Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewWatchModel(app, host, interval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		Loop(ctx, round, interval, p.Send)
	}()

	finalModel, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return m, fmt.Errorf("TUI error: %w", err)
	}

	fm, ok := finalModel.(Model)
	if !ok {
		return m, nil
	}
	return fm, fm.Err
}

// Loop runs a round immediately and then every interval, reporting each
// round to send, until ctx is cancelled.
func Loop(ctx context.Context, round RoundFunc, interval time.Duration, send func(tea.Msg)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		send(RoundStartMsg{})
		results := round(ctx)
		if ctx.Err() != nil {
			return
		}
		send(RoundMsg{Results: results, At: time.Now()})

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

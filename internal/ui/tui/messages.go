// Package tui provides lipgloss styles shared by the command output and a
// Bubble Tea dashboard for watching probe results.
package tui

import (
	"time"

	"github.com/kzgceremony/seqdeploy/internal/probe"
)

// RoundMsg carries the results of one probe round.
type RoundMsg struct {
	Results []probe.Result
	At      time.Time
}

// RoundStartMsg is sent when a probe round begins.
type RoundStartMsg struct{}

// TickMsg is sent periodically to animate the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that watching is over.
type DoneMsg struct{}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/kzgceremony/seqdeploy/internal/probe"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderTargets(&b, m)
	renderErrors(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("seqdeploy: %s", m.App)
	if m.Host != "" {
		title += fmt.Sprintf(" (%s)", m.Host)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Rounds == 0:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + dimStyle.Render("Probing...")
	case m.Healthy():
		status += readyStyle.Render("Healthy")
	default:
		status += failedStyle.Render("Degraded")
	}
	b.WriteString(status)
	b.WriteString("\n")

	if m.Rounds > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("  round %d, last at %s, every %s",
			m.Rounds, m.LastRound.Format(time.TimeOnly), formatDuration(m.Interval))))
		b.WriteString("\n")
	}
}

func renderTargets(b *strings.Builder, m Model) {
	if len(m.Names) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render("  Checks"))
	b.WriteString("\n")

	width := 0
	for _, name := range m.Names {
		width = max(width, len(name))
	}

	for _, name := range m.Names {
		r := m.Latest[name]
		mark := Mark(r.OK())
		if m.Probing {
			mark = activeStyle.Render(currentSpinner(m.SpinnerFrame))
		}
		fmt.Fprintf(b, "  %s %-*s %s %s %s\n",
			mark, width, name,
			historyBar(m.History[name]),
			dimStyle.Render(fmt.Sprintf("%3.0f%%", m.Uptime(name)*100)),
			detail(r))
	}
}

func renderErrors(b *strings.Builder, m Model) {
	var lines []string
	for _, name := range m.Names {
		if r := m.Latest[name]; !r.OK() {
			lines = append(lines, fmt.Sprintf("  %s %s: %v", warnMark, name, r.Err))
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render("  Failures"))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(warningStyle.Render(l))
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  watching for %s | q to quit", elapsed)))
	b.WriteString("\n")
}

// detail summarises a result in one short phrase.
func detail(r probe.Result) string {
	switch {
	case r.Target.Name == "":
		return dimStyle.Render(pending)
	case r.Err != nil:
		return failedStyle.Render("failed")
	case r.Target.Kind == probe.KindMetrics:
		return dimStyle.Render(fmt.Sprintf("%d families in %s", r.Families, r.Duration.Round(time.Millisecond)))
	case r.Target.Kind == probe.KindRedirect:
		return dimStyle.Render(fmt.Sprintf("%d -> %s", r.Status, r.Location))
	case r.Status != 0:
		return dimStyle.Render(fmt.Sprintf("%d in %s", r.Status, r.Duration.Round(time.Millisecond)))
	default:
		return dimStyle.Render(fmt.Sprintf("open in %s", r.Duration.Round(time.Millisecond)))
	}
}

// historyBar renders past outcomes oldest first, padded to historySize.
func historyBar(h []bool) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(strings.Repeat("·", historySize-len(h))))
	for _, ok := range h {
		if ok {
			b.WriteString(readyStyle.Render("▮"))
		} else {
			b.WriteString(failedStyle.Render("▮"))
		}
	}
	return b.String()
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

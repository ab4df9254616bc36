package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/kzgceremony/seqdeploy/internal/sequencer"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// envEntry is one variable in --json output.
type envEntry struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Origin string `json:"origin"`
	Source string `json:"source"`
}

// Env prints the environment the sequencer will see, resolved against the
// manifest and the contract defaults.
func Env(configPath string, jsonOutput bool) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}

	resolved := sequencer.Effective(m)

	if jsonOutput {
		entries := make([]envEntry, 0, len(resolved))
		for _, r := range resolved {
			entries = append(entries, envEntry{
				Name:   r.Name,
				Value:  r.Value,
				Origin: string(r.Origin),
				Source: string(r.Source),
			})
		}
		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	fmt.Fprintln(out, tui.Title("Environment of "+m.App))
	rows := make([][]string, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, []string{r.Name, r.Display(), tui.Dim(string(r.Origin))})
	}
	fmt.Fprintln(out, tui.Table([]string{"NAME", "VALUE", "ORIGIN"}, rows))

	for _, warning := range sequencer.Check(m).Warnings() {
		fmt.Fprintf(out, "  %s %s\n", tui.Warn(), warning)
	}
	return nil
}

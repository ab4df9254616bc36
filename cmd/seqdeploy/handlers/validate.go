package handlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/sequencer"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// Validate checks the manifest and the sequencer env contract. With strict,
// warnings fail the command too.
func Validate(configPath string, strict bool) error {
	path, err := resolvePath(configPath)
	if err != nil {
		return err
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest file: %w", err)
	}
	m, unknown, err := manifest.Decode(data, manifest.FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m.ApplyDefaults()

	fmt.Fprintln(out, tui.Title("Validating "+path))

	var warnings []string
	for _, key := range unknown {
		warnings = append(warnings, fmt.Sprintf("unknown key %q is ignored", key))
	}

	manifestErr := m.Validate()
	printCheck("Manifest", manifestErr)

	report := sequencer.Check(m)
	contractErr := report.Err()
	printCheck("Sequencer environment", contractErr)

	warnings = append(warnings, report.Warnings()...)
	for _, w := range warnings {
		fmt.Fprintf(out, "  %s %s\n", tui.Warn(), w)
	}

	if err := errors.Join(manifestErr, contractErr); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", path, err)
	}
	if strict && len(warnings) > 0 {
		return fmt.Errorf("%s has %d warning(s) and --strict is set", path, len(warnings))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s is valid.\n", path)
	return nil
}

func printCheck(name string, err error) {
	fmt.Fprintf(out, "  %s %s\n", tui.Mark(err == nil), name)
}

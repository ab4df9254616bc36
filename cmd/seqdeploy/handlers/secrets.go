package handlers

import (
	"fmt"
	"strings"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/secrets"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// SecretsList prints the declared secrets and their digests.
func SecretsList(configPath string) error {
	m, _, err := loadRaw(configPath)
	if err != nil {
		return err
	}

	names := m.SecretNames()
	if len(names) == 0 {
		fmt.Fprintln(out, "No secrets declared.")
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		digest := m.Secrets[name]
		state := "imported"
		if digest == manifest.UnsetDigest {
			state = "pending"
		}
		rows = append(rows, []string{name, digest, tui.Dim(state)})
	}
	fmt.Fprintln(out, tui.Table([]string{"NAME", "DIGEST", "STATE"}, rows))
	return nil
}

// SecretsImport records the digests of the values in valuesPath in the
// manifest. Values themselves are never written. Files with keys the model
// does not know are refused unless force is set or nothing is written.
func SecretsImport(configPath, valuesPath string, prune, dryRun, force bool) error {
	m, path, _, err := loadForRewrite(configPath, force || dryRun)
	if err != nil {
		return err
	}
	values, err := secrets.LoadValues(valuesPath)
	if err != nil {
		return err
	}

	changes := secrets.Import(m, values, prune)
	changed := false
	for _, c := range changes {
		fmt.Fprintf(out, "  %-10s %s\n", c.Action, c.Name)
		if c.Action != secrets.ActionUnchanged {
			changed = true
		}
	}

	if !changed {
		fmt.Fprintln(out, "Secrets are up to date.")
		return nil
	}
	if dryRun {
		fmt.Fprintln(out, "Dry run, manifest not written.")
		return nil
	}
	check := m.Clone()
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("import would produce an invalid manifest: %w", err)
	}
	if err := manifest.Save(m, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s\n", path)
	return nil
}

// SecretsVerify checks that the local values match the recorded digests.
func SecretsVerify(configPath, valuesPath string) error {
	m, _, err := loadRaw(configPath)
	if err != nil {
		return err
	}
	values, err := secrets.LoadValues(valuesPath)
	if err != nil {
		return err
	}

	problems := secrets.Verify(m, values)
	if len(problems) == 0 {
		fmt.Fprintf(out, "  %s all %d secrets match\n", tui.Mark(true), len(m.Secrets))
		return nil
	}

	names := make([]string, 0, len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  %s %s: %s\n", tui.Mark(false), p.Name, p.Reason)
		names = append(names, p.Name)
	}
	return fmt.Errorf("%d secret(s) do not match: %s", len(problems), strings.Join(names, ", "))
}

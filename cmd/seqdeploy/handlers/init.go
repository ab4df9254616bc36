package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/sequencer"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive wizard.
	runWizard = sequencer.RunWizard

	// saveManifest writes the manifest to a file.
	saveManifest = manifest.Save
)

// Init runs the wizard and writes a new manifest. With defaults, the wizard
// is skipped and the public sequencer's descriptor is written.
func Init(ctx context.Context, outputPath string, defaults, force bool) error {
	if fileExists(outputPath) {
		if !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", outputPath)
		}
		fmt.Fprintf(out, "Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	var m *manifest.Manifest
	if defaults {
		m = sequencer.DefaultManifest()
	} else {
		printWelcome()
		result, err := runWizard(ctx)
		if err != nil {
			return err
		}
		m = result.ToManifest()
	}

	if err := saveManifest(m, outputPath); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	printInitSuccess(outputPath, m)
	return nil
}

func printWelcome() {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "seqdeploy - KZG ceremony sequencer deployments")
	fmt.Fprintln(out, "==============================================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This wizard creates a manifest with the sequencer's defaults.")
	fmt.Fprintln(out)
}

func printInitSuccess(outputPath string, m *manifest.Manifest) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Manifest saved!")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  File:   %s\n", outputPath)
	fmt.Fprintf(out, "  App:    %s\n", m.App)
	fmt.Fprintf(out, "  Image:  %s\n", m.Build.Image)
	if m.PrimaryRegion != "" {
		fmt.Fprintf(out, "  Region: %s\n", m.PrimaryRegion)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Next Steps")
	fmt.Fprintln(out, "----------")
	fmt.Fprintln(out, "  1. Put the secret values in a YAML file (never commit it):")
	for _, name := range m.SecretNames() {
		fmt.Fprintf(out, "     %s: ...\n", name)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  2. Record their digests:")
	fmt.Fprintf(out, "     seqdeploy secrets import -c %s secrets.yaml\n", outputPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  3. Check the result:")
	fmt.Fprintf(out, "     seqdeploy validate -c %s\n", outputPath)
	fmt.Fprintln(out)
}

package handlers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Factory function variables - can be replaced in tests.
var (
	// out receives user-facing output.
	out io.Writer = os.Stdout

	// findManifest locates the manifest when no path is given.
	findManifest = manifest.FindFile

	// loadSettings reads tool settings from the environment.
	loadSettings = config.Load

	// isInteractiveTTY reports whether stdout is a terminal.
	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// resolvePath returns path, or the auto-detected manifest when it is empty.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	found, err := findManifest()
	if err != nil {
		return "", fmt.Errorf("%w (use --config to point at a manifest)", err)
	}
	return found, nil
}

// loadManifest resolves, reads, defaults and validates the manifest.
func loadManifest(path string) (*manifest.Manifest, string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return m, path, nil
}

// loadRaw resolves and reads the manifest exactly as written.
func loadRaw(path string) (*manifest.Manifest, string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}
	m, err := manifest.LoadWithoutValidation(path)
	if err != nil {
		return nil, path, err
	}
	return m, path, nil
}

// loadForRewrite reads the manifest as written for a command that saves it
// back, returning the original bytes too. Saving drops every key the model
// does not know, so such files are refused unless force is set.
func loadForRewrite(configPath string, force bool) (*manifest.Manifest, string, []byte, error) {
	path, err := resolvePath(configPath)
	if err != nil {
		return nil, "", nil, err
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	m, unknown, err := manifest.Decode(data, manifest.FormatFromPath(path))
	if err != nil {
		return nil, path, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(unknown) > 0 && !force {
		return nil, path, nil, fmt.Errorf("%s has keys seqdeploy does not model and rewriting would drop them: %s (use --force to rewrite anyway)",
			path, strings.Join(unknown, ", "))
	}
	return m, path, data, nil
}

// writeOutput writes data to path, or to out when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

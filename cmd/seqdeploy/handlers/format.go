package handlers

import (
	"bytes"
	"fmt"
	"os"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Fmt rewrites the manifest in canonical form. Implicit values stay
// implicit. With check, the file is left alone and an error is returned
// if it is not canonical. Files with keys the model does not know are
// refused unless force is set.
func Fmt(configPath string, check, force bool) error {
	m, path, data, err := loadForRewrite(configPath, force)
	if err != nil {
		return err
	}

	format := manifest.FormatFromPath(path)
	formatted, err := manifest.Marshal(m, format)
	if err != nil {
		return err
	}

	if bytes.Equal(data, formatted) {
		return nil
	}
	if check {
		return fmt.Errorf("%s is not formatted", path)
	}

	if err := os.WriteFile(path, formatted, 0600); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	fmt.Fprintf(out, "Formatted %s\n", path)
	return nil
}

// Convert re-encodes the manifest in another format and writes it to
// outputPath or stdout.
func Convert(configPath, to, outputPath string) error {
	format, err := manifest.ParseFormat(to)
	if err != nil {
		return err
	}

	m, _, err := loadRaw(configPath)
	if err != nil {
		return err
	}

	data, err := manifest.Marshal(m, format)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, data)
}

// Diff compares two manifests after defaults are applied. It returns an
// error when they differ so that scripts can branch on the exit code.
func Diff(pathA, pathB string) error {
	a, err := manifest.Load(pathA)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", pathA, err)
	}
	b, err := manifest.Load(pathB)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", pathB, err)
	}

	diff := manifest.Diff(a, b)
	if diff == "" {
		fmt.Fprintln(out, "Manifests are equivalent.")
		return nil
	}

	fmt.Fprintf(out, "--- %s\n+++ %s\n%s", pathA, pathB, diff)
	return fmt.Errorf("manifests differ")
}

package handlers

import (
	"github.com/kzgceremony/seqdeploy/internal/render"
)

// Render writes the Kubernetes objects for the manifest as a multi-document
// YAML stream.
func Render(configPath string, opts render.Options, outputPath string) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}

	data, err := render.YAML(m, opts)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, data)
}

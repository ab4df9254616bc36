package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/sequencer"
)

func TestInit_Defaults(t *testing.T) {
	buf := captureOutput(t)
	path := filepath.Join(t.TempDir(), "fly.toml")

	require.NoError(t, Init(context.Background(), path, true, false))
	assert.Contains(t, buf.String(), "Manifest saved!")
	assert.Contains(t, buf.String(), sequencer.ETHClientSecret)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.True(t, manifest.Equivalent(sequencer.DefaultManifest(), m))

	err = Init(context.Background(), path, true, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, Init(context.Background(), path, true, true))
}

func TestInit_Wizard(t *testing.T) {
	captureOutput(t)
	origWizard := runWizard
	defer func() { runWizard = origWizard }()

	runWizard = func(context.Context) (*sequencer.WizardResult, error) {
		return &sequencer.WizardResult{
			App:             "kzg-staging",
			Image:           sequencer.DefaultImage,
			Region:          "fra",
			PublicURL:       "https://staging.example.org",
			ComputeDeadline: "180",
			Metrics:         true,
		}, nil
	}

	path := filepath.Join(t.TempDir(), "fly.toml")
	require.NoError(t, Init(context.Background(), path, false, false))

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kzg-staging", m.App)
	assert.Equal(t, "fra", m.PrimaryRegion)
}

func TestInit_WizardCanceled(t *testing.T) {
	captureOutput(t)
	origWizard, origSave := runWizard, saveManifest
	defer func() { runWizard, saveManifest = origWizard, origSave }()

	saved := false
	runWizard = func(context.Context) (*sequencer.WizardResult, error) {
		return nil, errors.New("wizard canceled: user aborted")
	}
	saveManifest = func(*manifest.Manifest, string) error {
		saved = true
		return nil
	}

	err := Init(context.Background(), filepath.Join(t.TempDir(), "fly.toml"), false, false)
	require.Error(t, err)
	assert.False(t, saved)
}

package handlers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/sequencer"
)

// Handler tests swap package-level factories and output, so they do not
// run in parallel.

// captureOutput redirects handler output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := out
	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = orig })
	return &buf
}

// stubSettings makes loadSettings return s for the test.
func stubSettings(t *testing.T, s *config.Settings) {
	t.Helper()
	orig := loadSettings
	loadSettings = func() (*config.Settings, error) { return s, nil }
	t.Cleanup(func() { loadSettings = orig })
}

func testSettings() *config.Settings {
	return &config.Settings{
		HCloud: config.HCloud{Token: "test-token", Location: "fsn1", VolumeSize: 10},
		S3: config.S3{
			Endpoint:  "http://127.0.0.1:9000",
			Region:    "fsn1",
			Bucket:    "releases",
			AccessKey: "key",
			SecretKey: "secret",
		},
		Timeouts: *config.TestTimeouts(),
	}
}

// secretValues are values for every secret of the default manifest.
var secretValues = map[string]string{
	sequencer.GHClientID:      "gh-id",
	sequencer.GHClientSecret:  "gh-secret",
	sequencer.ETHClientID:     "eth-id",
	sequencer.ETHClientSecret: "eth-secret",
	sequencer.ETHRPCURL:       "https://rpc.example.org",
}

// writeManifest saves m into a temp dir and returns its path.
func writeManifest(t *testing.T, m *manifest.Manifest, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, manifest.Save(m, path))
	return path
}

// unmodeledTable is a fly.toml table the manifest model does not know.
const unmodeledTable = "\n[deploy]\n  release_command = \"migrate\"\n"

// writeManifestWithUnknown saves m and appends a table the model does not
// know.
func writeManifestWithUnknown(t *testing.T, m *manifest.Manifest) string {
	t.Helper()
	path := writeManifest(t, m, "fly.toml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, unmodeledTable...), 0600))
	return path
}

// writeValues writes a secret values file and returns its path.
func writeValues(t *testing.T, values map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	for k, v := range values {
		buf.WriteString(k + ": " + v + "\n")
	}
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}

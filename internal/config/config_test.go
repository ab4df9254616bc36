package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.False(t, s.Debug)
	assert.Empty(t, s.HCloud.Token)
	assert.Equal(t, "fsn1", s.HCloud.Location)
	assert.Equal(t, 10, s.HCloud.VolumeSize)
	assert.Equal(t, "https://fsn1.your-objectstorage.com", s.S3.Endpoint)
	assert.Equal(t, *DefaultTimeouts(), s.Timeouts)
}

func TestLoad_UnprefixedFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("HCLOUD_TOKEN", "plain-token")
	t.Setenv("S3_BUCKET", "releases")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "plain-token", s.HCloud.Token)
	assert.Equal(t, "releases", s.S3.Bucket)
}

func TestLoad_PrefixedWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("HCLOUD_TOKEN", "plain-token")
	t.Setenv("SEQDEPLOY_HCLOUD_TOKEN", "prefixed-token")
	t.Setenv("SEQDEPLOY_DEBUG", "true")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-token", s.HCloud.Token)
	assert.True(t, s.Debug)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEQDEPLOY_TIMEOUT_PROBE", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEOUT_PROBE must be positive")

	t.Setenv("SEQDEPLOY_TIMEOUT_PROBE", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadTimeouts(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEOUT_DELETE", "3m")
	t.Setenv("SEQDEPLOY_RETRY_MAX_ATTEMPTS", "10")

	timeouts := LoadTimeouts()
	assert.Equal(t, 3*time.Minute, timeouts.Delete)
	assert.Equal(t, 10, timeouts.RetryMaxAttempts)
	assert.Equal(t, 10*time.Second, timeouts.Probe)
}

func TestLoadTimeouts_InvalidFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEQDEPLOY_TIMEOUT_READY", "invalid")

	assert.Equal(t, DefaultTimeouts(), LoadTimeouts())
}

func TestRequire(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	assert.EqualError(t, s.RequireHCloud(), "HCLOUD_TOKEN is required")

	err := s.RequireS3()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
	assert.Contains(t, err.Error(), "S3_SECRET_KEY")

	s.HCloud.Token = "x"
	s.S3 = S3{Bucket: "b", AccessKey: "a", SecretKey: "s"}
	assert.NoError(t, s.RequireHCloud())
	assert.NoError(t, s.RequireS3())
}

// clearEnv blanks every variable the settings read, so the host
// environment does not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DEBUG", "HCLOUD_TOKEN", "HCLOUD_LOCATION", "HCLOUD_VOLUME_SIZE",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_PATH_STYLE",
		"DOCKER_HOST", "TIMEOUT_DELETE", "TIMEOUT_PROBE", "TIMEOUT_READY", "PROBE_WATCH_INTERVAL",
		"RETRY_MAX_ATTEMPTS", "RETRY_INITIAL_DELAY",
	} {
		for _, key := range []string{name, "SEQDEPLOY_" + name} {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

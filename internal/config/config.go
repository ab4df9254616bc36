package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment prefix for all settings.
const Prefix = "seqdeploy"

// Settings is the complete tool configuration.
type Settings struct {
	// Debug enables development logging.
	Debug bool `envconfig:"DEBUG"`

	// Groups are embedded so their variables share the top-level prefix.
	HCloud
	S3
	Docker
	Timeouts
}

// HCloud holds Hetzner Cloud credentials and placement defaults.
type HCloud struct {
	Token      string `envconfig:"HCLOUD_TOKEN"`
	Location   string `envconfig:"HCLOUD_LOCATION" default:"fsn1"`
	VolumeSize int    `envconfig:"HCLOUD_VOLUME_SIZE" default:"10"`
}

// S3 holds the release bucket location and credentials.
type S3 struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:"https://fsn1.your-objectstorage.com"`
	Region    string `envconfig:"S3_REGION" default:"fsn1"`
	Bucket    string `envconfig:"S3_BUCKET"`
	AccessKey string `envconfig:"S3_ACCESS_KEY"`
	SecretKey string `envconfig:"S3_SECRET_KEY"`
	PathStyle bool   `envconfig:"S3_PATH_STYLE"`
}

// Docker selects the engine used for local runs.
type Docker struct {
	// Host overrides socket discovery, e.g. unix:///var/run/docker.sock.
	Host string `envconfig:"DOCKER_HOST"`
}

// Load reads the settings from the environment.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("failed to read settings from environment: %w", err)
	}
	if err := s.Timeouts.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// RequireHCloud returns an error unless an API token is configured.
func (s *Settings) RequireHCloud() error {
	if s.HCloud.Token == "" {
		return errors.New("HCLOUD_TOKEN is required")
	}
	return nil
}

// RequireS3 returns an error unless the release bucket is fully configured.
func (s *Settings) RequireS3() error {
	var errs []error
	if s.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required"))
	}
	if s.S3.AccessKey == "" {
		errs = append(errs, errors.New("S3_ACCESS_KEY is required"))
	}
	if s.S3.SecretKey == "" {
		errs = append(errs, errors.New("S3_SECRET_KEY is required"))
	}
	return errors.Join(errs...)
}

func (t Timeouts) validate() error {
	var errs []error
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"TIMEOUT_DELETE", t.Delete},
		{"TIMEOUT_PROBE", t.Probe},
		{"TIMEOUT_READY", t.Ready},
		{"PROBE_WATCH_INTERVAL", t.WatchInterval},
		{"RETRY_INITIAL_DELAY", t.RetryInitialDelay},
	}
	for _, c := range checks {
		if c.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", c.name, c.d))
		}
	}
	if t.RetryMaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS cannot be negative, got %d", t.RetryMaxAttempts))
	}
	return errors.Join(errs...)
}

package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Timeouts holds all configurable timeout values.
type Timeouts struct {
	Delete            time.Duration `envconfig:"TIMEOUT_DELETE" default:"5m"`        // Timeout for all delete operations
	Probe             time.Duration `envconfig:"TIMEOUT_PROBE" default:"10s"`        // Timeout for a single probe request
	Ready             time.Duration `envconfig:"TIMEOUT_READY" default:"2m"`         // Timeout for a local container to become ready
	WatchInterval     time.Duration `envconfig:"PROBE_WATCH_INTERVAL" default:"15s"` // Interval between probe rounds in watch mode
	RetryMaxAttempts  int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`     // Maximum number of retry attempts
	RetryInitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"1s"`   // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from the environment.
// If a variable is unset or any value is invalid, the defaults are used.
func LoadTimeouts() *Timeouts {
	var t Timeouts
	if err := envconfig.Process(Prefix, &t); err != nil || t.validate() != nil {
		return DefaultTimeouts()
	}
	return &t
}

// DefaultTimeouts returns the built-in defaults.
func DefaultTimeouts() *Timeouts {
	return &Timeouts{
		Delete:            5 * time.Minute,
		Probe:             10 * time.Second,
		Ready:             2 * time.Minute,
		WatchInterval:     15 * time.Second,
		RetryMaxAttempts:  5,
		RetryInitialDelay: 1 * time.Second,
	}
}

// TestTimeouts returns short timeouts for tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		Delete:            5 * time.Second,
		Probe:             time.Second,
		Ready:             5 * time.Second,
		WatchInterval:     100 * time.Millisecond,
		RetryMaxAttempts:  3,
		RetryInitialDelay: 10 * time.Millisecond,
	}
}

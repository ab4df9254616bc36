package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
	"time"

	"github.com/distribution/reference"
)

// MaxKillTimeout is the longest grace period the supervisor honours.
const MaxKillTimeout = 5 * time.Minute

var (
	// appNameRegex matches DNS-safe application names.
	appNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{0,61}[a-z0-9]$`)

	// envNameRegex matches portable environment variable names.
	envNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidateAppName reports why s is not a DNS-safe application name: 2 to 63
// lowercase letters, digits and hyphens, starting with a letter and not
// ending with a hyphen.
func ValidateAppName(s string) error {
	switch {
	case s == "":
		return errors.New("app name is required")
	case appNameRegex.MatchString(s):
		return nil
	case len(s) > 63:
		return errors.New("app name must be 63 characters or less")
	case len(s) < 2:
		return errors.New("app name must be at least 2 characters")
	case s[0] < 'a' || s[0] > 'z':
		return errors.New("app name must start with a lowercase letter")
	case s[len(s)-1] == '-':
		return errors.New("app name cannot end with a hyphen")
	default:
		return errors.New("app name can only contain lowercase letters, numbers, and hyphens")
	}
}

// Validate checks the manifest and returns every violation found, joined.
func (m *Manifest) Validate() error {
	var errs []error

	// App: required, DNS-safe
	if m.App == "" {
		errs = append(errs, errors.New("app is required"))
	} else if err := ValidateAppName(m.App); err != nil {
		errs = append(errs, fmt.Errorf("app %q must be DNS-safe: %w", m.App, err))
	}

	// Build image: required, valid reference
	if m.Build.Image == "" {
		errs = append(errs, errors.New("build.image is required"))
	} else if _, err := reference.ParseNormalizedNamed(m.Build.Image); err != nil {
		errs = append(errs, fmt.Errorf("build.image %q is not a valid image reference: %w", m.Build.Image, err))
	}

	// Shutdown contract
	if m.KillSignal != "" && !m.KillSignal.IsValid() {
		errs = append(errs, fmt.Errorf("kill_signal must be one of: %v", ValidSignals()))
	}
	if m.KillTimeout.Duration < 0 || m.KillTimeout.Duration > MaxKillTimeout {
		errs = append(errs, fmt.Errorf("kill_timeout must be between 0s and %s, got %s", MaxKillTimeout, m.KillTimeout.Duration))
	}

	errs = append(errs, m.validateEnvAndSecrets()...)
	errs = append(errs, m.validateMounts()...)
	errs = append(errs, m.validateServices()...)
	errs = append(errs, m.validateMetrics()...)

	if m.Experimental != nil {
		for _, p := range m.Experimental.AllowedPublicPorts {
			if !validPort(p) {
				errs = append(errs, fmt.Errorf("experimental.allowed_public_ports: port %d must be 1-65535", p))
			}
		}
	}

	return errors.Join(errs...)
}

// validateEnvAndSecrets checks names and that no name is defined both inline and as a secret.
func (m *Manifest) validateEnvAndSecrets() []error {
	var errs []error

	for _, name := range m.EnvNames() {
		if !envNameRegex.MatchString(name) {
			errs = append(errs, fmt.Errorf("env: %q is not a valid variable name", name))
		}
		if _, ok := m.Secrets[name]; ok {
			errs = append(errs, fmt.Errorf("env: %q is also defined as a secret", name))
		}
	}

	for _, name := range m.SecretNames() {
		if !envNameRegex.MatchString(name) {
			errs = append(errs, fmt.Errorf("secrets: %q is not a valid variable name", name))
		}
		digest := m.Secrets[name]
		if digest == "" {
			errs = append(errs, fmt.Errorf("secrets: %q has an empty digest", name))
		} else if _, err := hex.DecodeString(digest); err != nil {
			errs = append(errs, fmt.Errorf("secrets: %q digest must be hex", name))
		}
	}

	return errs
}

// validateMounts checks that every mount has a source and a unique absolute destination.
func (m *Manifest) validateMounts() []error {
	var errs []error
	seen := make(map[string]bool, len(m.Mounts))

	for i, mnt := range m.Mounts {
		if mnt.Source == "" {
			errs = append(errs, fmt.Errorf("mounts[%d]: source is required", i))
		}
		if mnt.Destination == "" {
			errs = append(errs, fmt.Errorf("mounts[%d]: destination is required", i))
			continue
		}
		if !path.IsAbs(mnt.Destination) {
			errs = append(errs, fmt.Errorf("mounts[%d]: destination %q must be an absolute path", i, mnt.Destination))
		}
		clean := path.Clean(mnt.Destination)
		if seen[clean] {
			errs = append(errs, fmt.Errorf("mounts[%d]: destination %q is mounted more than once", i, mnt.Destination))
		}
		seen[clean] = true
	}

	return errs
}

// validateServices checks ports, protocols, handler chains and limits.
func (m *Manifest) validateServices() []error {
	var errs []error

	if len(m.Services) == 0 {
		return []error{errors.New("at least one service is required")}
	}

	external := make(map[int]int)
	hasPortMapping := false

	for i, svc := range m.Services {
		if !validPort(svc.InternalPort) {
			errs = append(errs, fmt.Errorf("services[%d]: internal_port must be 1-65535, got %d", i, svc.InternalPort))
		}
		if svc.Protocol != "" && !svc.Protocol.IsValid() {
			errs = append(errs, fmt.Errorf("services[%d]: protocol must be tcp or udp, got %q", i, svc.Protocol))
		}

		if c := svc.Concurrency; c != nil {
			if c.Type != "" && !c.Type.IsValid() {
				errs = append(errs, fmt.Errorf("services[%d].concurrency: type must be connections or requests, got %q", i, c.Type))
			}
			if c.SoftLimit < 0 || c.HardLimit < 0 {
				errs = append(errs, fmt.Errorf("services[%d].concurrency: limits cannot be negative", i))
			}
			if c.HardLimit > 0 && c.SoftLimit > c.HardLimit {
				errs = append(errs, fmt.Errorf("services[%d].concurrency: soft_limit %d exceeds hard_limit %d", i, c.SoftLimit, c.HardLimit))
			}
		}

		for j, p := range svc.Ports {
			hasPortMapping = true
			where := fmt.Sprintf("services[%d].ports[%d]", i, j)

			if !validPort(p.Port) {
				errs = append(errs, fmt.Errorf("%s: port must be 1-65535, got %d", where, p.Port))
			} else if prev, dup := external[p.Port]; dup {
				errs = append(errs, fmt.Errorf("%s: port %d is already bound by services[%d]", where, p.Port, prev))
			} else {
				external[p.Port] = i
			}

			if err := validateHandlerChain(p.Handlers); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			if p.ForceHTTPS && !p.HasHandler(HandlerHTTP) {
				errs = append(errs, fmt.Errorf("%s: force_https requires the http handler", where))
			}
		}
	}

	if !hasPortMapping {
		errs = append(errs, errors.New("at least one service port mapping is required"))
	}

	return errs
}

// validateHandlerChain checks that every handler is supported, appears once,
// and that TLS termination happens before HTTP parsing.
func validateHandlerChain(chain []Handler) error {
	if len(chain) == 0 {
		return errors.New("handlers must not be empty")
	}

	seen := make(map[Handler]bool, len(chain))
	for _, h := range chain {
		if !h.IsValid() {
			return fmt.Errorf("unsupported handler %q: must be one of %v", h, ValidHandlers())
		}
		if seen[h] {
			return fmt.Errorf("handler %q appears more than once", h)
		}
		seen[h] = true
	}

	tlsIdx := slices.Index(chain, HandlerTLS)
	httpIdx := slices.Index(chain, HandlerHTTP)
	if tlsIdx >= 0 && httpIdx >= 0 && tlsIdx > httpIdx {
		return errors.New("tls must come before http in the handler chain")
	}
	if seen[HandlerTLS] && seen[HandlerPGTLS] {
		return errors.New("tls and pg_tls cannot be combined")
	}

	return nil
}

// validateMetrics checks the scrape target.
func (m *Manifest) validateMetrics() []error {
	if m.Metrics == nil {
		return nil
	}

	var errs []error
	if !validPort(m.Metrics.Port) {
		errs = append(errs, fmt.Errorf("metrics.port must be 1-65535, got %d", m.Metrics.Port))
	} else if slices.Contains(m.InternalPorts(), m.Metrics.Port) {
		errs = append(errs, fmt.Errorf("metrics.port %d collides with a service internal_port", m.Metrics.Port))
	}
	if m.Metrics.Path == "" || m.Metrics.Path[0] != '/' {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/', got %q", m.Metrics.Path))
	}

	return errs
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

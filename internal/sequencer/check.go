package sequencer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Finding is a problem with one variable.
type Finding struct {
	Name    string
	Message string
}

func (f Finding) Error() string {
	return f.Message
}

// Report is the result of checking a manifest against the contract.
type Report struct {
	// Missing lists required variables set neither inline nor as a secret.
	Missing []string
	// Invalid lists inline values the service would reject.
	Invalid []Finding
	// Misplaced lists secret-only variables set inline.
	Misplaced []string
	// Unknown lists names the service does not read. They are warnings.
	Unknown []string
	// Pending lists secrets declared with manifest.UnsetDigest.
	Pending []string
}

// OK reports whether the manifest satisfies the contract.
func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0 && len(r.Misplaced) == 0
}

// Err joins the blocking findings, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, name := range r.Missing {
		errs = append(errs, fmt.Errorf("%s is required but set neither in [env] nor in [secrets]", name))
	}
	for _, f := range r.Invalid {
		errs = append(errs, f)
	}
	for _, name := range r.Misplaced {
		errs = append(errs, fmt.Errorf("%s holds a credential and must be a secret, not an inline env value", name))
	}
	return errors.Join(errs...)
}

// Warnings returns the non-blocking findings as messages.
func (r Report) Warnings() []string {
	var out []string
	for _, name := range r.Unknown {
		out = append(out, fmt.Sprintf("%s is not read by the sequencer", name))
	}
	for _, name := range r.Pending {
		out = append(out, fmt.Sprintf("secret %s has not been imported yet", name))
	}
	return out
}

// Check compares the manifest's env and secrets with the contract.
func Check(m *manifest.Manifest) Report {
	var r Report

	for _, v := range contract {
		value, inline := m.Env[v.Name]
		digest, secret := m.Secrets[v.Name]

		switch {
		case inline && v.Source == SourceSecret:
			r.Misplaced = append(r.Misplaced, v.Name)
		case inline:
			if err := v.Parse(value); err != nil {
				r.Invalid = append(r.Invalid, Finding{Name: v.Name, Message: err.Error()})
			}
		case secret:
			if digest == manifest.UnsetDigest {
				r.Pending = append(r.Pending, v.Name)
			}
		case v.Required:
			r.Missing = append(r.Missing, v.Name)
		}
	}

	if f, ok := checkLobbyWindow(m.Env); !ok {
		r.Invalid = append(r.Invalid, f)
	}

	for _, name := range append(m.EnvNames(), m.SecretNames()...) {
		if _, known := Lookup(name); !known && !slices.Contains(r.Unknown, name) {
			r.Unknown = append(r.Unknown, name)
		}
	}
	slices.Sort(r.Unknown)

	return r
}

// checkLobbyWindow verifies that the check-in tolerance leaves a positive
// minimum delay between two check-ins. Values that do not parse are
// reported by their own kind check.
func checkLobbyWindow(env map[string]string) (Finding, bool) {
	freq, err := resolvedDuration(env, LobbyCheckinFrequency)
	if err != nil {
		return Finding{}, true
	}
	tol, err := resolvedDuration(env, LobbyCheckinTolerance)
	if err != nil {
		return Finding{}, true
	}
	if tol >= freq {
		return Finding{
			Name:    LobbyCheckinTolerance,
			Message: fmt.Sprintf("%s (%s) must be shorter than %s (%s)", LobbyCheckinTolerance, tol, LobbyCheckinFrequency, freq),
		}, false
	}
	return Finding{}, true
}

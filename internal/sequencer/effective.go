package sequencer

import (
	"time"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Origin says where an effective value comes from.
type Origin string

const (
	OriginInline  Origin = "inline"
	OriginSecret  Origin = "secret"
	OriginDefault Origin = "default"
	OriginUnset   Origin = "unset"
)

// Resolved is a variable together with the value the service will see.
// Secret values are never known to the tool, so Value is empty for them.
type Resolved struct {
	Variable
	Value  string
	Origin Origin
}

// Effective resolves every contract variable against the manifest, in
// contract order.
func Effective(m *manifest.Manifest) []Resolved {
	out := make([]Resolved, 0, len(contract))
	for _, v := range contract {
		r := Resolved{Variable: v}
		switch value, inline := m.Env[v.Name]; {
		case inline:
			r.Value, r.Origin = value, OriginInline
		case hasSecret(m, v.Name):
			r.Origin = OriginSecret
		case v.Default != "":
			r.Value, r.Origin = v.Default, OriginDefault
		default:
			r.Origin = OriginUnset
		}
		out = append(out, r)
	}
	return out
}

// Display returns the value as shown to users; nonce block heights are
// shown in the hex form the service uses.
func (r Resolved) Display() string {
	switch r.Origin {
	case OriginSecret:
		return "<secret>"
	case OriginUnset:
		return "<unset>"
	}
	if r.Name == ETHNonceVerificationBlock {
		if hex, err := NonceBlockHex(r.Value); err == nil {
			return r.Value + " (" + hex + ")"
		}
	}
	return r.Value
}

func hasSecret(m *manifest.Manifest, name string) bool {
	_, ok := m.Secrets[name]
	return ok
}

// resolvedDuration returns the inline value of a duration variable, or its default.
func resolvedDuration(env map[string]string, name string) (time.Duration, error) {
	value, ok := env[name]
	if !ok {
		v, _ := Lookup(name)
		value = v.Default
	}
	return ParseSeconds(value)
}

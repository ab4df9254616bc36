package secrets

import (
	"encoding/hex"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// DigestLength is the number of hex characters kept from the hash.
const DigestLength = 16

// Digest returns the manifest digest of a secret value: the first
// DigestLength hex characters of its BLAKE2b-256 hash.
func Digest(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:DigestLength]
}

// LoadValues reads a YAML mapping of secret name to value.
func LoadValues(path string) (map[string]string, error) {
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret values: %w", err)
	}
	return ParseValues(data)
}

// ParseValues decodes a YAML mapping of secret name to value. Scalars of
// any type are accepted and kept in their literal form.
func ParseValues(data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse secret values: %w", err)
	}
	values := make(map[string]string)
	if len(doc.Content) == 0 {
		return values, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("secret values must be a mapping, got line %d", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("secret %q (line %d) must be a scalar value", key.Value, key.Line)
		}
		if _, dup := values[key.Value]; dup {
			return nil, fmt.Errorf("secret %q is defined more than once", key.Value)
		}
		values[key.Value] = val.Value
	}
	return values, nil
}

// Action is what Import did to one secret.
type Action string

const (
	ActionAdded     Action = "added"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionRemoved   Action = "removed"
)

// Change records the effect of Import on one secret name.
type Change struct {
	Name   string
	Action Action
}

// Import hashes values into m.Secrets. With prune, secrets that are not in
// values are removed. Changes are returned sorted by name.
func Import(m *manifest.Manifest, values map[string]string, prune bool) []Change {
	if m.Secrets == nil {
		m.Secrets = make(map[string]string, len(values))
	}

	var changes []Change
	for _, name := range slices.Sorted(maps.Keys(values)) {
		digest := Digest(values[name])
		prev, exists := m.Secrets[name]
		switch {
		case !exists:
			changes = append(changes, Change{Name: name, Action: ActionAdded})
		case prev != digest:
			changes = append(changes, Change{Name: name, Action: ActionUpdated})
		default:
			changes = append(changes, Change{Name: name, Action: ActionUnchanged})
		}
		m.Secrets[name] = digest
	}

	if prune {
		for _, name := range m.SecretNames() {
			if _, ok := values[name]; !ok {
				delete(m.Secrets, name)
				changes = append(changes, Change{Name: name, Action: ActionRemoved})
			}
		}
	}

	slices.SortFunc(changes, func(a, b Change) int {
		return strings.Compare(a.Name, b.Name)
	})
	return changes
}

// Problem is a secret whose local value does not match the manifest.
type Problem struct {
	Name   string
	Reason string
}

// Verify compares local values with the digests recorded in m. It reports
// secrets with no local value and values whose digest differs.
func Verify(m *manifest.Manifest, values map[string]string) []Problem {
	var problems []Problem
	for _, name := range m.SecretNames() {
		value, ok := values[name]
		switch {
		case !ok:
			problems = append(problems, Problem{Name: name, Reason: "no local value"})
		case m.Secrets[name] == manifest.UnsetDigest:
			problems = append(problems, Problem{Name: name, Reason: "not imported yet"})
		case Digest(value) != m.Secrets[name]:
			problems = append(problems, Problem{Name: name, Reason: "digest mismatch"})
		}
	}
	return problems
}

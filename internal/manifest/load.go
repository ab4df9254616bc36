package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"sigs.k8s.io/yaml"
)

// unknownFieldRegex extracts the field name from a strict decoding error.
var unknownFieldRegex = regexp.MustCompile(`unknown field "([^"]+)"`)

// DefaultFilename is the manifest filename looked up by FindFile.
const DefaultFilename = "fly.toml"

// Load reads, defaults and validates a manifest from a file.
// The format is chosen from the file extension.
func Load(path string) (*Manifest, error) {
	m, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	return m, nil
}

// LoadWithoutValidation reads a manifest from a file as written, without
// defaults or validation. Tooling that rewrites files uses this so that
// implicit values stay implicit.
func LoadWithoutValidation(path string) (*Manifest, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return Parse(data, FormatFromPath(path))
}

// Parse decodes a manifest without defaults or validation.
func Parse(data []byte, format Format) (*Manifest, error) {
	m, _, err := Decode(data, format)
	return m, err
}

// Decode decodes a manifest and also returns the keys present in the input
// that the manifest model does not know about. TOML input reports every
// unknown key; YAML and JSON input report the first one found.
func Decode(data []byte, format Format) (*Manifest, []string, error) {
	var m Manifest
	switch format {
	case FormatTOML, "":
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		var unknown []string
		for _, key := range md.Undecoded() {
			unknown = append(unknown, key.String())
		}
		return &m, unknown, nil
	case FormatYAML, FormatJSON:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", strings.ToUpper(string(format)), err)
		}
		var unknown []string
		if err := yaml.UnmarshalStrict(data, &Manifest{}); err != nil {
			if match := unknownFieldRegex.FindStringSubmatch(err.Error()); match != nil {
				unknown = append(unknown, match[1])
			}
		}
		return &m, unknown, nil
	default:
		return nil, nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Marshal encodes a manifest in the given format.
func Marshal(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatTOML, "":
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.Indent = "  "
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		out, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Save writes a manifest to a file in the format implied by its extension.
func Save(m *Manifest, path string) error {
	data, err := Marshal(m, FormatFromPath(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// FormatFromPath infers the format from a file extension, defaulting to TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// FindFile searches for fly.toml in the current directory and then in each
// parent directory.
func FindFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findFileFrom(cwd)
}

func findFileFrom(dir string) (string, error) {
	for {
		path := filepath.Join(dir, DefaultFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("manifest file %s not found", DefaultFilename)
}

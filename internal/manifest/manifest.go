package manifest

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// UnsetDigest marks a secret that is declared but whose value has not been
// imported yet.
const UnsetDigest = "0000000000000000"

// Manifest is the deployment descriptor of an application.
type Manifest struct {
	// App is the unique deployment identifier.
	App string `toml:"app" json:"app"`

	// PrimaryRegion is the region new machines are placed in.
	PrimaryRegion string `toml:"primary_region,omitempty" json:"primary_region,omitempty"`

	// KillSignal is delivered to the process on shutdown.
	KillSignal Signal `toml:"kill_signal,omitempty" json:"kill_signal,omitempty"`

	// KillTimeout is the grace period between KillSignal and forced termination.
	KillTimeout Duration `toml:"kill_timeout,omitempty" json:"kill_timeout,omitzero"`

	// Build selects the container image to run.
	Build Build `toml:"build" json:"build"`

	// Mounts attaches persistent volumes. Order is preserved.
	Mounts MountList `toml:"mounts,omitempty" json:"mounts,omitempty"`

	// Env is injected into the process environment.
	Env map[string]string `toml:"env,omitempty" json:"env,omitempty"`

	// Secrets maps externally managed secret names to an opaque digest of
	// their value. Values are never stored in the manifest.
	Secrets map[string]string `toml:"secrets,omitempty" json:"secrets,omitempty"`

	// Experimental holds deployment policy toggles.
	Experimental *Experimental `toml:"experimental,omitempty" json:"experimental,omitempty"`

	// Metrics is the scrape target for external monitoring.
	Metrics *Metrics `toml:"metrics,omitempty" json:"metrics,omitempty"`

	// Services are the network ingress rules. Order is preserved.
	Services []Service `toml:"services,omitempty" json:"services,omitempty"`
}

// Build selects what the platform runs.
type Build struct {
	Image string `toml:"image" json:"image"`
}

// Mount attaches a named volume at a path inside the machine.
type Mount struct {
	Source      string `toml:"source" json:"source"`
	Destination string `toml:"destination" json:"destination"`
}

// MountList is an ordered list of mounts. It decodes from either a single
// [mounts] table or a [[mounts]] array of tables.
type MountList []Mount

// Experimental holds deployment policy toggles.
type Experimental struct {
	AutoRollback       bool  `toml:"auto_rollback" json:"auto_rollback"`
	AllowedPublicPorts []int `toml:"allowed_public_ports,omitempty" json:"allowed_public_ports,omitempty"`
}

// Metrics is a Prometheus scrape target exposed by the process.
type Metrics struct {
	Port int    `toml:"port" json:"port"`
	Path string `toml:"path" json:"path"`
}

// Service binds an internal port to one or more external ports.
type Service struct {
	InternalPort int          `toml:"internal_port" json:"internal_port"`
	Protocol     Protocol     `toml:"protocol,omitempty" json:"protocol,omitempty"`
	Processes    []string     `toml:"processes,omitempty" json:"processes,omitempty"`
	Concurrency  *Concurrency `toml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Ports        []Port       `toml:"ports,omitempty" json:"ports,omitempty"`
	TCPChecks    []TCPCheck   `toml:"tcp_checks,omitempty" json:"tcp_checks,omitempty"`
	HTTPChecks   []HTTPCheck  `toml:"http_checks,omitempty" json:"http_checks,omitempty"`
}

// Port is an external port and the handler chain applied to its traffic.
type Port struct {
	Port       int       `toml:"port" json:"port"`
	Handlers   []Handler `toml:"handlers" json:"handlers"`
	ForceHTTPS bool      `toml:"force_https,omitempty" json:"force_https,omitempty"`
}

// Concurrency limits load per machine.
type Concurrency struct {
	Type      ConcurrencyType `toml:"type" json:"type"`
	SoftLimit int             `toml:"soft_limit" json:"soft_limit"`
	HardLimit int             `toml:"hard_limit" json:"hard_limit"`
}

// TCPCheck is a connect health check against the internal port.
type TCPCheck struct {
	Interval     Duration `toml:"interval,omitempty" json:"interval,omitzero"`
	Timeout      Duration `toml:"timeout,omitempty" json:"timeout,omitzero"`
	GracePeriod  Duration `toml:"grace_period,omitempty" json:"grace_period,omitzero"`
	RestartLimit int      `toml:"restart_limit" json:"restart_limit"`
}

// HTTPCheck is an HTTP health check against the internal port.
type HTTPCheck struct {
	Interval     Duration `toml:"interval,omitempty" json:"interval,omitzero"`
	Timeout      Duration `toml:"timeout,omitempty" json:"timeout,omitzero"`
	GracePeriod  Duration `toml:"grace_period,omitempty" json:"grace_period,omitzero"`
	RestartLimit int      `toml:"restart_limit" json:"restart_limit"`
	Method       string   `toml:"method,omitempty" json:"method,omitempty"`
	Path         string   `toml:"path,omitempty" json:"path,omitempty"`
}

// HasHandler returns true if h is part of the port's handler chain.
func (p Port) HasHandler(h Handler) bool {
	return slices.Contains(p.Handlers, h)
}

// PublicPorts returns every external port across all services, in
// declaration order, followed by any experimental allowed public ports
// not already listed.
func (m *Manifest) PublicPorts() []int {
	var ports []int
	for _, svc := range m.Services {
		for _, p := range svc.Ports {
			if !slices.Contains(ports, p.Port) {
				ports = append(ports, p.Port)
			}
		}
	}
	if m.Experimental != nil {
		for _, p := range m.Experimental.AllowedPublicPorts {
			if !slices.Contains(ports, p) {
				ports = append(ports, p)
			}
		}
	}
	return ports
}

// InternalPorts returns the internal port of every service.
func (m *Manifest) InternalPorts() []int {
	ports := make([]int, 0, len(m.Services))
	for _, svc := range m.Services {
		if !slices.Contains(ports, svc.InternalPort) {
			ports = append(ports, svc.InternalPort)
		}
	}
	return ports
}

// EnvNames returns the inline environment variable names, sorted.
func (m *Manifest) EnvNames() []string {
	return slices.Sorted(maps.Keys(m.Env))
}

// SecretNames returns the referenced secret names, sorted.
func (m *Manifest) SecretNames() []string {
	return slices.Sorted(maps.Keys(m.Secrets))
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	out := *m
	out.Mounts = slices.Clone(m.Mounts)
	out.Env = maps.Clone(m.Env)
	out.Secrets = maps.Clone(m.Secrets)
	if m.Experimental != nil {
		exp := *m.Experimental
		exp.AllowedPublicPorts = slices.Clone(m.Experimental.AllowedPublicPorts)
		out.Experimental = &exp
	}
	if m.Metrics != nil {
		metrics := *m.Metrics
		out.Metrics = &metrics
	}
	if m.Services != nil {
		out.Services = make([]Service, len(m.Services))
		for i, svc := range m.Services {
			out.Services[i] = svc.clone()
		}
	}
	return &out
}

func (s Service) clone() Service {
	out := s
	out.Processes = slices.Clone(s.Processes)
	if s.Concurrency != nil {
		c := *s.Concurrency
		out.Concurrency = &c
	}
	if s.Ports != nil {
		out.Ports = make([]Port, len(s.Ports))
		for i, p := range s.Ports {
			p.Handlers = slices.Clone(p.Handlers)
			out.Ports[i] = p
		}
	}
	out.TCPChecks = slices.Clone(s.TCPChecks)
	out.HTTPChecks = slices.Clone(s.HTTPChecks)
	return out
}

// UnmarshalTOML implements toml.Unmarshaler.
func (l *MountList) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case map[string]any:
		mnt, err := mountFromMap(val)
		if err != nil {
			return err
		}
		*l = MountList{mnt}
	case []map[string]any:
		out := make(MountList, 0, len(val))
		for _, item := range val {
			mnt, err := mountFromMap(item)
			if err != nil {
				return err
			}
			out = append(out, mnt)
		}
		*l = out
	case []any:
		out := make(MountList, 0, len(val))
		for i, item := range val {
			table, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("mounts[%d]: expected a table, got %T", i, item)
			}
			mnt, err := mountFromMap(table)
			if err != nil {
				return err
			}
			out = append(out, mnt)
		}
		*l = out
	default:
		return fmt.Errorf("mounts: expected a table or an array of tables, got %T", v)
	}
	return nil
}

func mountFromMap(table map[string]any) (Mount, error) {
	var mnt Mount
	for key, raw := range table {
		s, ok := raw.(string)
		if !ok {
			return Mount{}, fmt.Errorf("mounts.%s: expected a string, got %T", key, raw)
		}
		switch key {
		case "source":
			mnt.Source = s
		case "destination":
			mnt.Destination = s
		}
	}
	return mnt, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *MountList) UnmarshalJSON(data []byte) error {
	var list []Mount
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single Mount
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("mounts: expected an object or an array of objects: %w", err)
	}
	*l = MountList{single}
	return nil
}

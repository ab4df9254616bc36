package manifest

import "time"

// Defaults applied by ApplyDefaults.
const (
	DefaultKillSignal  = SignalINT
	DefaultKillTimeout = 30 * time.Second
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills in implicit values the platform would assume.
func (m *Manifest) ApplyDefaults() {
	if m.KillSignal == "" {
		m.KillSignal = DefaultKillSignal
	}
	if m.KillTimeout.Duration == 0 {
		m.KillTimeout = Duration{DefaultKillTimeout}
	}

	for i := range m.Services {
		if m.Services[i].Protocol == "" {
			m.Services[i].Protocol = ProtocolTCP
		}
		if c := m.Services[i].Concurrency; c != nil && c.Type == "" {
			c.Type = ConcurrencyConnections
		}
	}

	if m.Metrics != nil && m.Metrics.Path == "" {
		m.Metrics.Path = DefaultMetricsPath
	}
}

package probe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are registered per Prober so that several probers can coexist.
type metrics struct {
	success  *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	families *prometheus.GaugeVec
	checks   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		success: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "seqdeploy",
				Subsystem: "probe",
				Name:      "success",
				Help:      "Whether the last check of a target succeeded (1) or failed (0)",
			},
			[]string{"app", "target", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "seqdeploy",
				Subsystem: "probe",
				Name:      "duration_seconds",
				Help:      "Duration of a check in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"app", "target", "kind"},
		),
		families: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "seqdeploy",
				Subsystem: "probe",
				Name:      "metric_families",
				Help:      "Number of metric families exposed by the scraped metrics endpoint",
			},
			[]string{"app"},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seqdeploy",
				Subsystem: "probe",
				Name:      "checks_total",
				Help:      "Total number of checks by target and result",
			},
			[]string{"app", "target", "result"},
		),
	}
	reg.MustRegister(m.success, m.duration, m.families, m.checks)
	return m
}

func (m *metrics) record(app string, r Result) {
	m.duration.WithLabelValues(app, r.Target.Name, string(r.Target.Kind)).Observe(r.Duration.Seconds())

	result := "success"
	value := 1.0
	if r.Err != nil {
		result, value = "failure", 0
	}
	m.success.WithLabelValues(app, r.Target.Name, string(r.Target.Kind)).Set(value)
	m.checks.WithLabelValues(app, r.Target.Name, result).Inc()

	if r.Target.Kind == KindMetrics && r.Err == nil {
		m.families.WithLabelValues(app).Set(float64(r.Families))
	}
}

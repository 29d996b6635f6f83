package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace prefixes every metric name with namespace_subsystem_.
// Empty values keep the defaults.
func WithNamespace(namespace, subsystem string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets overrides the millisecond buckets of every histogram.
func WithLatencyBuckets(buckets ...float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithLabels attaches constant labels, e.g. an instance name.
func WithLabels(labels prometheus.Labels) Option {
	return func(m *Manager) {
		m.constLabels = labels
	}
}

// WithRegisterer registers metrics on r instead of the default registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

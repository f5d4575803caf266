package icepeak

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus-style counters/gauges the core calls
// into on every durability and broadcast operation. A caller that does
// not want metrics exported passes NewNopMetrics(): metrics are always
// updated, but are only observable by a registry that cares.
type Metrics struct {
	DataFileBytes            prometheus.Gauge
	DataWrittenBytesTotal    prometheus.Counter
	JournalWrittenBytesTotal prometheus.Counter
	JournalBytes             prometheus.Gauge
	Subscribers              prometheus.Gauge
	ModificationsTotal       prometheus.Counter
}

// NewMetrics registers icepeak's metrics on reg and returns the handle
// the core uses to update them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DataFileBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icepeak_data_file_bytes",
			Help: "Size of the on-disk snapshot after the most recent sync.",
		}),
		DataWrittenBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icepeak_data_written_bytes_total",
			Help: "Cumulative bytes written to the snapshot temp file.",
		}),
		JournalWrittenBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icepeak_journal_written_bytes_total",
			Help: "Cumulative bytes appended to the journal.",
		}),
		JournalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icepeak_journal_bytes",
			Help: "Bytes currently in the journal since the last truncate.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icepeak_subscribers",
			Help: "Live WebSocket subscriber count.",
		}),
		ModificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icepeak_modifications_total",
			Help: "Modify commands processed by the coordinator.",
		}),
	}
	reg.MustRegister(
		m.DataFileBytes,
		m.DataWrittenBytesTotal,
		m.JournalWrittenBytesTotal,
		m.JournalBytes,
		m.Subscribers,
		m.ModificationsTotal,
	)
	return m
}

// NewNopMetrics returns a Metrics whose fields are unregistered,
// standalone collectors — safe to update, never exported. Used by
// tests and by any embedder that does not want a Prometheus registry.
func NewNopMetrics() *Metrics {
	return &Metrics{
		DataFileBytes:            prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_data_file_bytes"}),
		DataWrittenBytesTotal:    prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_data_written_bytes_total"}),
		JournalWrittenBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_journal_written_bytes_total"}),
		JournalBytes:             prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_journal_bytes"}),
		Subscribers:              prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_subscribers"}),
		ModificationsTotal:       prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_modifications_total"}),
	}
}

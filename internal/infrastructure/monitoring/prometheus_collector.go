package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes engine counters. It implements
// ports.Instrumentation.
type PrometheusCollector struct {
	messagesIngestedTotal prometheus.Counter
	viewerCount           prometheus.Gauge
	viewerCountKnown      prometheus.Gauge
	snapshotsWrittenTotal prometheus.Counter
	recordsAppendedTotal  *prometheus.CounterVec
	capturesTotal         *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		messagesIngestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kickpulse_messages_ingested_total",
			Help: "Total number of chat messages ingested",
		}),

		viewerCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kickpulse_viewer_count",
			Help: "Most recently observed viewer count",
		}),

		viewerCountKnown: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kickpulse_viewer_count_known",
			Help: "Whether a viewer count observation is currently retained (0 or 1)",
		}),

		snapshotsWrittenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kickpulse_snapshots_written_total",
			Help: "Total number of snapshot records written to the session log",
		}),

		recordsAppendedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kickpulse_log_records_appended_total",
			Help: "Total number of records appended to the session log",
		}, []string{"type"}),

		capturesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kickpulse_captures_total",
			Help: "Total number of finished capture attempts",
		}, []string{"result"}),
	}
}

func (p *PrometheusCollector) MessageIngested() {
	p.messagesIngestedTotal.Inc()
}

func (p *PrometheusCollector) ViewerCountObserved(count int, valid bool) {
	if valid {
		p.viewerCount.Set(float64(count))
		p.viewerCountKnown.Set(1)
	} else {
		p.viewerCountKnown.Set(0)
	}
}

func (p *PrometheusCollector) SnapshotWritten() {
	p.snapshotsWrittenTotal.Inc()
}

func (p *PrometheusCollector) CaptureFinished(failed bool) {
	result := "success"
	if failed {
		result = "failure"
	}
	p.capturesTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) RecordAppended(kind string) {
	p.recordsAppendedTotal.WithLabelValues(kind).Inc()
}

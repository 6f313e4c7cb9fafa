// Package metrics exposes indexing counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this package
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	filesIndexed = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "vmsg_viewer_files_indexed_total",
		Help: "Archive files indexed, by kind and outcome",
	}, []string{"kind", "status"})

	recordsParsed = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "vmsg_viewer_records_parsed_total",
		Help: "Contacts and messages parsed from archive files",
	}, []string{"kind"})

	parseDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vmsg_viewer_parse_duration_seconds",
		Help:    "Time spent reading and parsing one archive file",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"kind"})

	scansTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "vmsg_viewer_scans_total",
		Help: "Archive scans started",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// FileIndexed records the outcome of indexing one file.
// status is one of indexed, skipped or failed.
func FileIndexed(kind, status string) {
	filesIndexed.WithLabelValues(kind, status).Inc()
}

// RecordsParsed adds n parsed records of kind
func RecordsParsed(kind string, n int) {
	recordsParsed.WithLabelValues(kind).Add(float64(n))
}

// ObserveParse records how long parsing a file took
func ObserveParse(kind string, d time.Duration) {
	parseDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ScanStarted counts a scan run
func ScanStarted() {
	scansTotal.Inc()
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

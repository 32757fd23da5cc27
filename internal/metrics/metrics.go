package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup results
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Poster mirror results
const (
	MirrorCached   = "cached"
	MirrorUploaded = "uploaded"
	MirrorFailed   = "failed"
)

// ItemKey labels the last run item gauge
type ItemKey struct {
	Kind   string
	Status string
}

// Metrics holds the digest collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	Lookups       *prometheus.CounterVec
	PosterMirrors *prometheus.CounterVec
	Pauses        prometheus.Counter
	Runs          *prometheus.CounterVec

	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
	LastRunItems     *prometheus.GaugeVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexdigest",
			Name:      "lookups_total",
			Help:      "Metadata lookups by media kind and result.",
		}, []string{"kind", "result"}),
		PosterMirrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexdigest",
			Name:      "poster_mirrors_total",
			Help:      "Poster mirror attempts by result.",
		}, []string{"result"}),
		Pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plexdigest",
			Name:      "rate_limit_pauses_total",
			Help:      "Pauses taken between metadata lookups.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexdigest",
			Name:      "runs_total",
			Help:      "Digest runs by outcome.",
		}, []string{"outcome"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plexdigest",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run.",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plexdigest",
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last finished run.",
		}),
		LastRunItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "plexdigest",
			Name:      "last_run_items",
			Help:      "Items in the last digest by kind and status.",
		}, []string{"kind", "status"}),
	}

	m.Registry.MustRegister(
		m.Lookups,
		m.PosterMirrors,
		m.Pauses,
		m.Runs,
		m.LastRunTimestamp,
		m.LastRunDuration,
		m.LastRunItems,
	)
	return m
}

// ObserveLookup counts one lookup
func (m *Metrics) ObserveLookup(kind, result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(kind, result).Inc()
}

// ObserveMirror counts one poster mirror attempt
func (m *Metrics) ObserveMirror(result string) {
	if m == nil {
		return
	}
	m.PosterMirrors.WithLabelValues(result).Inc()
}

// ObservePause counts one pacing pause
func (m *Metrics) ObservePause() {
	if m == nil {
		return
	}
	m.Pauses.Inc()
}

// ObserveRun records the outcome and the item gauges of a finished run
func (m *Metrics) ObserveRun(finished time.Time, duration time.Duration, err error, counts map[ItemKey]int) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.LastRunTimestamp.Set(float64(finished.Unix()))
	m.LastRunDuration.Set(duration.Seconds())

	for labels, n := range counts {
		m.LastRunItems.WithLabelValues(labels.Kind, labels.Status).Set(float64(n))
	}
}

// WriteTextfile dumps the registry in the node exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

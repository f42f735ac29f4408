// Package metrics exposes sync outcomes of the client as Prometheus
// collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kenala"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeLocal    = "local"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	journalOps    *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	reconciled    *prometheus.CounterVec
	notifications prometheus.Counter
	online        prometheus.Gauge
}

// New creates collectors registered on a private registry together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		journalOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_ops_total",
			Help:      "Journal write operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Journal refreshes from the backend by outcome.",
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_records_total",
			Help:      "Unsynced journals pushed during reconciliation by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_ingested_total",
			Help:      "Push notifications stored in the local inbox.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_online",
			Help:      "1 when the last health check reached the backend.",
		}),
	}
	reg.MustRegister(
		m.journalOps, m.refreshes, m.reconciled, m.notifications, m.online,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) JournalOp(op, outcome string) {
	if m == nil {
		return
	}
	m.journalOps.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconciled(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciled.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) NotificationIngested() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

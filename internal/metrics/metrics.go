package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payrecon"

// Metrics holds the reconciler's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	events        *prometheus.CounterVec
	deadLetters   *prometheus.CounterVec
	retries       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	dedupHits     prometheus.Counter
	intentsQueued *prometheus.CounterVec
}

// MustNewMetrics registers the collectors on reg and panics on conflicts.
// Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "events_total",
			Help:      "Provider events processed, by verdict.",
		}, []string{"provider", "verdict"}),
		deadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "dead_letters_total",
			Help:      "Events parked in the dead-letter store, by reason.",
		}, []string{"provider", "reason"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deadletter",
			Name:      "retries_total",
			Help:      "Dead-letter retries, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Time spent reconciling one event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		dedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "dedup_cache_hits_total",
			Help:      "Replays answered from the in-process dedup cache.",
		}),
		intentsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "queued_total",
			Help:      "Intents written to the outbox, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.events, m.deadLetters, m.retries, m.duration, m.dedupHits, m.intentsQueued)

	return m
}

func (m *Metrics) ObserveEvent(provider, verdict string, took time.Duration) {
	if m == nil {
		return
	}

	m.events.WithLabelValues(provider, verdict).Inc()
	m.duration.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Metrics) IncDeadLetter(provider, reason string) {
	if m == nil {
		return
	}

	m.deadLetters.WithLabelValues(provider, reason).Inc()
}

func (m *Metrics) IncRetry(result string) {
	if m == nil {
		return
	}

	m.retries.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDedupHit() {
	if m == nil {
		return
	}

	m.dedupHits.Inc()
}

func (m *Metrics) IncIntent(kind string) {
	if m == nil {
		return
	}

	m.intentsQueued.WithLabelValues(kind).Inc()
}

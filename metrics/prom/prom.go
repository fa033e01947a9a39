// Package prom exports cache metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlassian-forks/mongo/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evicts      *prometheus.CounterVec
	activations prometheus.Counter
	demotions   prometheus.Counter
	sizeEnt     prometheus.Gauge
	sizeBytes   prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Plan cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Plan cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Plan cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "activations_total",
			Help:        "Entries promoted to the active state",
			ConstLabels: constLabels,
		}),
		demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "deactivations_total",
			Help:        "Entries demoted after a degraded execution",
			ConstLabels: constLabels,
		}),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
		sizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_bytes",
			Help:        "Total resident bytes",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.activations, a.demotions, a.sizeEnt, a.sizeBytes)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(reason(r)).Inc()
}

// Size updates gauges for the number of entries and resident bytes.
// Partitions report independently; treat the gauges as approximate under
// heavy churn.
func (a *Adapter) Size(entries int, bytes int64) {
	a.sizeEnt.Set(float64(entries))
	a.sizeBytes.Set(float64(bytes))
}

// Activate increments the activation counter.
func (a *Adapter) Activate() { a.activations.Inc() }

// Deactivate increments the deactivation counter.
func (a *Adapter) Deactivate() { a.demotions.Inc() }

// reason maps EvictReason to a stable label value.
func reason(r cache.EvictReason) string {
	switch r {
	case cache.EvictStale:
		return "stale"
	default:
		return "budget"
	}
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)

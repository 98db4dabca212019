package balance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "walletscan"
	metricsSubsystem = "balance"
)

// Metrics counts the work done by the balance lookups
type Metrics struct {
	Batches       prometheus.Counter
	BatchFailures prometheus.Counter
	Requests      prometheus.Counter
	Retries       prometheus.Counter
	Addresses     prometheus.Counter
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	TotalSatoshis prometheus.Gauge
}

// NewMetrics creates the balance metrics and registers them on reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		Batches:       counter("batches_total", "Address batches folded into a total."),
		BatchFailures: counter("batch_failures_total", "Address batches whose lookup failed."),
		Requests:      counter("requests_total", "HTTP requests sent to the balance endpoint."),
		Retries:       counter("retries_total", "HTTP requests retried after a transient failure."),
		Addresses:     counter("addresses_total", "Addresses whose balance was looked up."),
		CacheHits:     counter("cache_hits_total", "Balances served from the cache."),
		CacheMisses:   counter("cache_misses_total", "Balances missing or stale in the cache."),
		TotalSatoshis: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "total_satoshis",
			Help:      "Last computed wallet total in satoshis.",
		}),
	}
}

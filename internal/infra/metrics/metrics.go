// Package metrics exposes matching counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
)

const namespace = "trueconnect"

type Matching struct {
	registry        *prometheus.Registry
	swipes          *prometheus.CounterVec
	matches         *prometheus.CounterVec
	quotaRejections prometheus.Counter
	rateLimited     prometheus.Counter
	browseLoads     *prometheus.CounterVec
	batchSize       prometheus.Histogram
}

// NewMatching registers the collectors on a private registry.
func NewMatching() *Matching {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Matching{
		registry: registry,
		swipes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swipes_total",
			Help:      "Swipe decisions recorded in the ledger",
		}, []string{"action"}),
		matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Reciprocal positive swipes, split by whether a new match row was created",
		}, []string{"created"}),
		quotaRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Likes rejected by the daily quota",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swipes_rate_limited_total",
			Help:      "Swipe attempts rejected by the burst limiter",
		}),
		browseLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browse_loads_total",
			Help:      "Candidate batch loads by result",
		}, []string{"result"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "browse_batch_size",
			Help:      "Candidates per loaded batch",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *Matching) BatchLoaded(size int) {
	result := "candidates"
	if size == 0 {
		result = "empty"
	}
	m.browseLoads.WithLabelValues(result).Inc()
	m.batchSize.Observe(float64(size))
}

func (m *Matching) SwipeRecorded(action enums.SwipeAction) {
	m.swipes.WithLabelValues(string(action)).Inc()
}

func (m *Matching) MatchFormed(created bool) {
	m.matches.WithLabelValues(strconv.FormatBool(created)).Inc()
}

func (m *Matching) QuotaRejected() {
	m.quotaRejections.Inc()
}

func (m *Matching) RateLimited() {
	m.rateLimited.Inc()
}

func (m *Matching) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Matching) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

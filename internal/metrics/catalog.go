package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"result"}, // "ok" / "unknown_base"
	)

	recommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time to compute recommendations in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"cache"}, // "hit" / "miss" / "off"
	)

	recommendationsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendations_returned",
			Help:      "Number of books returned per recommendation request",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	catalogBooks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_books",
			Help:      "Number of books in the current catalog snapshot",
		},
	)
)

// Recorder feeds recommendation and catalog events into Prometheus.
// It satisfies recommend.Observer and search.CatalogObserver.
type Recorder struct {
	cacheEnabled bool
}

// NewRecorder returns a Recorder. cacheEnabled controls the cache label of the duration histogram.
func NewRecorder(cacheEnabled bool) *Recorder {
	return &Recorder{cacheEnabled: cacheEnabled}
}

// ObserveRecommendation records one recommendation request.
func (r *Recorder) ObserveRecommendation(found, cacheHit bool, returned int, elapsed time.Duration) {
	if !found {
		recommendationsTotal.WithLabelValues("unknown_base").Inc()
		return
	}
	recommendationsTotal.WithLabelValues("ok").Inc()
	cache := "off"
	if r.cacheEnabled {
		cache = "miss"
		if cacheHit {
			cache = "hit"
		}
	}
	recommendationDuration.WithLabelValues(cache).Observe(elapsed.Seconds())
	recommendationsReturned.Observe(float64(returned))
}

// ObserveCatalog sets the catalog size gauge.
func (r *Recorder) ObserveCatalog(books int) {
	catalogBooks.Set(float64(books))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "signage_source_fetch_duration_seconds",
		Help:    "Duration of content source fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "status"})

	SourceItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signage_source_items_total",
		Help: "Items produced by content sources",
	}, []string{"source"})

	AggregationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signage_aggregations_total",
		Help: "Content aggregations served",
	})

	DisplayConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signage_display_connections",
		Help: "Displays currently connected to the refresh channel",
	})

	RefreshBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signage_refresh_broadcasts_total",
		Help: "Refresh commands sent to displays",
	})
)

// MustRegister registers the metrics
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SourceFetchDuration,
		SourceItems,
		AggregationsTotal,
		DisplayConnections,
		RefreshBroadcasts,
	)
}

// ObserveSource records the duration and outcome of a source fetch.
// Sources fail soft, so ok is passed explicitly instead of an error.
func ObserveSource(source string, start time.Time, ok bool, items int) {
	if source == "" {
		source = "unknown"
	}
	status := "success"
	if !ok {
		status = "error"
	}
	SourceFetchDuration.WithLabelValues(source, status).Observe(time.Since(start).Seconds())
	if items > 0 {
		SourceItems.WithLabelValues(source).Add(float64(items))
	}
}

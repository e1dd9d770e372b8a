package server

import (
	"github.com/MeKo-Tech/lapse/internal/timing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lapse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Feed metrics
	feedRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lapse_feed_refreshes_total",
			Help: "Total number of benchmark feed refreshes",
		},
	)

	// Per-slot statistics from the most recent refresh
	slotMinSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lapse_timer_min_seconds",
			Help: "Smallest recorded interval per timer slot",
		},
		[]string{"timer"},
	)

	slotMaxSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lapse_timer_max_seconds",
			Help: "Largest recorded interval per timer slot",
		},
		[]string{"timer"},
	)

	slotAvgSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lapse_timer_avg_seconds",
			Help: "Mean recorded interval per timer slot",
		},
		[]string{"timer"},
	)

	slotTotalSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lapse_timer_total_seconds",
			Help: "Sum of recorded intervals per timer slot",
		},
		[]string{"timer"},
	)

	slotSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lapse_timer_samples",
			Help: "Number of recorded intervals per timer slot",
		},
		[]string{"timer"},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lapse_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapse_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"},
	)
)

// setSlotGauges publishes one slot's statistics.
func setSlotGauges(st timing.Stats) {
	slotMinSeconds.WithLabelValues(st.Name).Set(st.Min)
	slotMaxSeconds.WithLabelValues(st.Name).Set(st.Max)
	slotAvgSeconds.WithLabelValues(st.Name).Set(st.Avg)
	slotTotalSeconds.WithLabelValues(st.Name).Set(st.Total)
	slotSamples.WithLabelValues(st.Name).Set(float64(st.Count))
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlink_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Relay metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindlink_rooms_active",
			Help: "Rooms with at least one participant",
		},
	)

	ParticipantsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindlink_participants_active",
			Help: "Connections currently joined to a room",
		},
	)

	BroadcastsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlink_broadcasts_relayed_total",
			Help: "Room broadcasts relayed",
		},
		[]string{"action"},
	)

	DirectedSends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindlink_directed_sends_total",
			Help: "Directed (single-recipient) sends",
		},
	)

	DroppedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindlink_dropped_deliveries_total",
			Help: "Per-recipient deliveries dropped (slow or gone recipient)",
		},
	)

	// Execution service metrics
	ExecRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindlink_exec_requests_total",
			Help: "Code execution requests by outcome",
		},
		[]string{"language", "outcome"}, // outcome: "ok" or "error"
	)
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

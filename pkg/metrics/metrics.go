package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocket metrics
	WsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Current number of live WebSocket connections",
		},
	)

	WsIdentitiesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_identities_active",
			Help: "Current number of identities with at least one live connection",
		},
	)

	// Dispatch metrics
	DispatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Inbound dispatch events by name and outcome",
		},
		[]string{"event", "outcome"},
	)

	RidesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rides_total",
			Help: "Ride status transitions committed",
		},
		[]string{"status"},
	)

	RideOfferFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ride_offer_fanout",
			Help:    "Number of candidate drivers offered a single ride request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Outbound notifications delivered to live connections",
		},
		[]string{"event"},
	)
)

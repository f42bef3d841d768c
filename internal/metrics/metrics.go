package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tripsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trips_saved_total",
			Help: "Total number of trips saved, by transport mode",
		},
		[]string{"mode"},
	)
	co2SavedKg = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "co2_saved_kg_total",
			Help: "Kilograms of CO2 saved across all trips",
		},
	)
	pointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Points awarded across all trips",
		},
	)
	tierNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_notifications_total",
			Help: "Medal push notifications, by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)
	realtimeClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Connected progress websocket clients",
		},
	)

	registerOnce sync.Once
)

// Register adds the domain collectors to the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(tripsSaved, co2SavedKg, pointsAwarded, tierNotifications, realtimeClients)
	})
}

func RecordTrip(mode string, co2 float64, points int) {
	tripsSaved.WithLabelValues(mode).Inc()
	if co2 > 0 {
		co2SavedKg.Add(co2)
	}
	if points > 0 {
		pointsAwarded.Add(float64(points))
	}
}

func RecordTierNotification(tier string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	tierNotifications.WithLabelValues(tier, outcome).Inc()
}

func ClientConnected()    { realtimeClients.Inc() }
func ClientDisconnected() { realtimeClients.Dec() }

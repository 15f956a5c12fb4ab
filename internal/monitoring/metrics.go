package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hh_store_writes_total",
			Help: "Full-document writes to the shared medium",
		},
		[]string{"key", "op", "status"},
	)

	broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hh_sync_broadcasts_total",
			Help: "Change notifications sent per document key",
		},
		[]string{"key"},
	)

	refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hh_surface_refreshes_total",
			Help: "Surface re-evaluations by trigger (timer or notification)",
		},
		[]string{"surface", "trigger", "status"},
	)

	catalogStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hh_catalog_events",
			Help: "Events per lifecycle status as of the last refresh",
		},
		[]string{"status"},
	)

	openSurfaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hh_surfaces_open",
			Help: "Currently open surface sessions",
		},
	)

	outbound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hh_outbound_calls_total",
			Help: "Outbound collaborator calls (email, geocode)",
		},
		[]string{"target", "status"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TrackWrite counts one upsert/delete against a document key.
func TrackWrite(key, op string, err error) {
	storeWrites.WithLabelValues(key, op, outcome(err)).Inc()
}

// TrackBroadcast counts one change notification.
func TrackBroadcast(key string) {
	broadcasts.WithLabelValues(key).Inc()
}

// TrackRefresh counts one surface re-evaluation.
func TrackRefresh(surface, trigger string, err error) {
	refreshes.WithLabelValues(surface, trigger, outcome(err)).Inc()
}

// SetStatusCounts publishes the per-status event counts.
func SetStatusCounts(counts map[string]int) {
	for status, n := range counts {
		catalogStatus.WithLabelValues(status).Set(float64(n))
	}
}

// SetOpenSurfaces publishes the number of open surfaces.
func SetOpenSurfaces(n int) {
	openSurfaces.Set(float64(n))
}

// TrackOutbound counts one call to an external collaborator.
func TrackOutbound(target string, err error) {
	outbound.WithLabelValues(target, outcome(err)).Inc()
}

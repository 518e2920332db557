package mirrorsync

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lastSyncTimestamp is a Gauge that captures the timestamp of the
	// last successful repository sync
	lastSyncTimestamp *prometheus.GaugeVec
	// syncCount is a Counter vector of repository sync attempts
	syncCount *prometheus.CounterVec
	// syncLatency is a Histogram vector that keeps track of repository
	// sync durations
	syncLatency *prometheus.HistogramVec
)

// EnableMetrics will enable metrics collection for repository syncs.
// Available metrics are...
//   - last_sync_timestamp - (tags: repoid)
//     A Gauge that captures the Timestamp of the last successful sync per repository.
//   - sync_count - (tags: repoid,success)
//     A Counter for each sync attempt, tagged with the result (success=true|false)
//   - sync_latency_seconds - (tags: repoid)
//     A Histogram that keeps track of the sync latency per repository.
func EnableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	lastSyncTimestamp = promauto.With(registerer).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_sync_timestamp",
		Help:      "Timestamp of the last successful repository sync",
	},
		[]string{
			// id of the repository
			"repoid",
		},
	)

	syncCount = promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sync_count",
		Help:      "Count of repository sync attempts",
	},
		[]string{
			// id of the repository
			"repoid",
			// Whether the sync was successful or not
			"success",
		},
	)

	// reposync of a large repository can run for a long time,
	// buckets range from seconds to an hour
	syncLatency = promauto.With(registerer).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "sync_latency_seconds",
		Help:      "Latency for repository sync",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	},
		[]string{
			// id of the repository
			"repoid",
		},
	)
}

// recordSync records a repository sync attempt by updating all the
// relevant metrics
func recordSync(repoid string, success bool) {
	// if metrics not enabled return
	if lastSyncTimestamp == nil || syncCount == nil {
		return
	}
	if success {
		lastSyncTimestamp.With(prometheus.Labels{
			"repoid": repoid,
		}).Set(float64(time.Now().Unix()))
	}
	syncCount.With(prometheus.Labels{
		"repoid":  repoid,
		"success": strconv.FormatBool(success),
	}).Inc()
}

func updateSyncLatency(repoid string, start time.Time) {
	// if metrics not enabled return
	if syncLatency == nil {
		return
	}
	syncLatency.WithLabelValues(repoid).Observe(time.Since(start).Seconds())
}

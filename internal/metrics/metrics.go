// Package metrics provides Prometheus metrics for the fileroom server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileroom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileroom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	downloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileroom_download_bytes_total",
			Help: "Total file bytes streamed to clients",
		},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileroom_downloads_total",
			Help: "Total number of file downloads",
		},
		[]string{"status"},
	)

	downloadsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileroom_downloads_active",
			Help: "Number of downloads currently streaming",
		},
	)

	throttleWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fileroom_throttle_wait_seconds",
			Help:    "Time download chunks spent waiting on the bandwidth limiter",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	treeSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileroom_tree_entries",
			Help: "Number of files/directories under the shared root",
		},
	)

	watchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileroom_watch_events_total",
			Help: "Filesystem change events observed under the shared root",
		},
		[]string{"op"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDownload records a finished (or aborted) file download.
func RecordDownload(bytes int64, success bool) {
	downloadBytesTotal.Add(float64(bytes))
	status := "success"
	if !success {
		status = "aborted"
	}
	downloadsTotal.WithLabelValues(status).Inc()
}

// DownloadStarted marks one more in-flight download. The returned func
// marks it finished.
func DownloadStarted() func() {
	downloadsActive.Inc()
	return downloadsActive.Dec
}

// RecordThrottleWait records time a chunk spent blocked on the limiter.
func RecordThrottleWait(d time.Duration) {
	throttleWaitSeconds.Observe(d.Seconds())
}

// SetTreeSize sets the current entry count under the root.
func SetTreeSize(n int64) {
	treeSize.Set(float64(n))
}

// RecordWatchEvent counts one filesystem change notification.
func RecordWatchEvent(op string) {
	watchEventsTotal.WithLabelValues(op).Inc()
}

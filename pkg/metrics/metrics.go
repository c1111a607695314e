// Package metrics 定义 feedrank 的 Prometheus 指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 排序
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedrank_rank_duration_seconds",
			Help:    "Duration of a single Rank call in seconds",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	RankCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedrank_rank_candidates",
			Help:    "Number of candidates per Rank call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	PassSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedrank_pass_skipped_total",
			Help: "Total number of optional ranking passes skipped after a failure",
		},
		[]string{"pass"},
	)

	// 曝光
	ExposureHistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedrank_exposure_history_entries",
			Help: "Current number of ids in the top-shown exposure history",
		},
	)

	// Pipeline
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedrank_pipeline_node_duration_seconds",
			Help:    "Duration of pipeline node processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedrank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedrank_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedrank_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordAPIRequest 记录一次 HTTP 请求。
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRank 记录一次排序调用。
func ObserveRank(candidates int, d time.Duration) {
	RankCandidates.Observe(float64(candidates))
	RankDuration.Observe(d.Seconds())
}

// Package metrics はPrometheusのコレクタを定義します。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests はルートとステータスごとのリクエスト数です。
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "todo",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TodoOperations はサービス操作の結果 (ok, invalid, not_found, error) ごとの件数です。
	TodoOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "operations_total",
		Help:      "Todo service operations by operation and result.",
	}, []string{"operation", "result"})
)

const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// ObserveOperation はサービス操作の結果を1件記録します。
func ObserveOperation(operation, result string) {
	TodoOperations.WithLabelValues(operation, result).Inc()
}

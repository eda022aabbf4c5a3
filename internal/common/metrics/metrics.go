// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_messages_processed_total",
			Help: "Total number of inbound messages processed per channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_pipeline_duration_seconds",
			Help: "Duration of pipeline processing in seconds",
		},
		[]string{"channel"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_search_requests_total",
			Help: "Total number of downstream search requests per operation and result",
		},
		[]string{"operation", "result"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_requests_total",
			Help: "Search response cache lookups per result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

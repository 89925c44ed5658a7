package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_requests_total",
			Help: "Total number of support API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "support_request_duration_seconds",
			Help: "Duration of support API requests",
		},
		[]string{"method", "endpoint"},
	)
	nodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_node_duration_seconds",
			Help:    "Duration of workflow node executions",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"node", "status"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(nodeDuration)
}

// ObserveNode records one workflow node execution. It satisfies
// graph.NodeObserver.
func ObserveNode(node string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	nodeDuration.WithLabelValues(node, status).Observe(elapsed.Seconds())
}

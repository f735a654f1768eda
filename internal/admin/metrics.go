package admin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_admin_requests_total",
		Help: "Total number of admin API requests",
	}, []string{"route", "status"})

	latencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendpulse_admin_latency_seconds",
		Help:    "Latency of admin API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

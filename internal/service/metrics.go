package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphquery_service_requests_total",
		Help: "Requests sent to the processing service, by endpoint and status code",
	}, []string{"endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphquery_service_request_duration_seconds",
		Help:    "Round trip time of requests to the processing service",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphquery_submissions_total",
		Help: "Query submissions, by mode and result",
	}, []string{"mode", "result"})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphquery_tasks_total",
		Help: "Tracked tasks, by outcome",
	}, []string{"outcome"})

	trackingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphquery_tasks_tracking",
		Help: "Number of tasks currently being tracked",
	})
)

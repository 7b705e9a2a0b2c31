package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labelscan_pipeline_runs_total",
			Help: "Total number of pipeline runs by terminal state",
		},
		[]string{"state"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labelscan_pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"stage"},
	)

	regionsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labelscan_regions_detected",
			Help:    "Number of regions kept per run after NMS",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	credentialsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labelscan_credentials_found",
			Help:    "Number of unique credentials per completed run",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	// Degraded-mode signal: the caller-facing result stays empty either
	// way, but operators can tell "backend down" from "nothing found".
	backendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labelscan_backend_failures_total",
			Help: "Runs executed while a collaborator backend was unavailable",
		},
		[]string{"backend"},
	)
)

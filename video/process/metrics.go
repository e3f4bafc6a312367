package process

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detectionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgecam_detection_seconds",
		Help:    "Time spent resizing, classifying and annotating a frame.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	detectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_detection_failures_total",
		Help: "Frames delivered without an overlay because detection failed.",
	})
)

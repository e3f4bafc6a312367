package video

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_frames_captured_total",
		Help: "Frames successfully read from the video source.",
	})
	readFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_read_failures_total",
		Help: "Capture cycles where the source read failed and the fallback was used.",
	})
	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_queue_dropped_total",
		Help: "Frames dropped because the frame queue was full.",
	})
	fallbackServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_fallback_frames_total",
		Help: "GetFrame calls answered with the fallback image.",
	})
	encodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgecam_encode_failures_total",
		Help: "Frames that failed JPEG encoding.",
	})
	sessionsCapturing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgecam_session_capturing",
		Help: "Number of sessions with a running capture loop.",
	})
)

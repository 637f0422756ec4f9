package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animation_jobs_processed_total",
		Help: "Total number of render jobs processed, by status",
	}, []string{"status"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "animation_render_duration_seconds",
		Help:    "Duration of animation render pipeline stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesEncodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animation_frames_encoded_total",
		Help: "Total number of sequence frames encoded across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "animation_active_workers",
		Help: "Number of currently active workers rendering animations",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animation_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)

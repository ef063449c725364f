package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline stages used as the stage label.
const (
	StageUpload   = "upload"
	StageExtract  = "extract"
	StageArtifact = "artifact"
	StageClassify = "classify"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrecast_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrecast_predictions_total",
			Help: "Total number of successful predictions per genre",
		},
		[]string{"genre"},
	)

	PipelineFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrecast_pipeline_failures_total",
			Help: "Total number of failed pipeline runs per stage",
		},
		[]string{"stage"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genrecast_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal, PredictionsTotal, PipelineFailuresTotal, StageDuration)
}

package metrics

import "testing"

import "github.com/prometheus/client_golang/prometheus/testutil"
import "github.com/stretchr/testify/require"

func TestHTTPRequestsTotal(t *testing.T) {
	HTTPRequestsTotal.Reset()

	HTTPRequestsTotal.WithLabelValues("GET", "/", "200").Inc()
	HTTPRequestsTotal.WithLabelValues("GET", "/", "200").Inc()
	HTTPRequestsTotal.WithLabelValues("POST", "/classify", "422").Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/classify", "422")))
}

func TestPipelineCounters(t *testing.T) {
	PredictionsTotal.Reset()
	PipelineFailuresTotal.Reset()

	PredictionsTotal.WithLabelValues("jazz").Inc()
	PipelineFailuresTotal.WithLabelValues(StageExtract).Add(3)

	require.Equal(t, 1.0, testutil.ToFloat64(PredictionsTotal.WithLabelValues("jazz")))
	require.Equal(t, 3.0, testutil.ToFloat64(PipelineFailuresTotal.WithLabelValues(StageExtract)))
	require.Equal(t, 0.0, testutil.ToFloat64(PipelineFailuresTotal.WithLabelValues(StageClassify)))
}

func TestStageDurationRegistered(t *testing.T) {
	StageDuration.Reset()
	StageDuration.WithLabelValues(StageExtract).Observe(0.2)
	require.Equal(t, 1, testutil.CollectAndCount(StageDuration))
}

package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownmytodo/todoai/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})
	return collector
}

func TestRewriteMetricsEmitted(t *testing.T) {
	collector := setupTelemetry(t)

	RecordRewrite(OutcomeSuccess)
	RecordRateLimitRejection("memory")
	RecordRateLimitStoreError("redis")
	RecordGeneration("gemini", 120*time.Millisecond, "")
	RecordGeneration("gemini", 8*time.Second, "timeout")

	assert.Equal(t, 1, collector.CountMetricsByName(RewriteRequestsTotal))
	assert.Equal(t, 1, collector.CountMetricsByName(RateLimitRejectionsTotal))
	assert.Equal(t, 1, collector.CountMetricsByName(RateLimitStoreErrorsTotal))
	assert.Greater(t, collector.CountMetricsByName(GenerationDuration), 0)
	assert.Equal(t, 1, collector.CountMetricsByName(GenerationFailuresTotal))
}

func TestMetricsNoopWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	defer func() { observability.TelemetrySystem = original }()

	assert.NotPanics(t, func() {
		RecordRewrite(OutcomeUpstream)
		RecordGeneration("openai", time.Second, "auth")
		RecordError("RATE_LIMITED", 429)
		RecordPanic()
		SetServerStartTime(time.Now().Unix())
	})
}

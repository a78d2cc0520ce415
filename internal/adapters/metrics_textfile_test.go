package adapters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsTextfileAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "agent_bundles.prom")
	metrics := NewMetricsTextfileAdapter(path)

	metrics.ObserveAttempt("a", "transport", 20*time.Millisecond)
	metrics.ObserveAttempt("a", "success", 40*time.Millisecond)
	metrics.ObserveAttempt("b", "success", 10*time.Millisecond)
	metrics.ObserveBundle("a", true, true)
	metrics.ObserveBundle("b", false, false)

	require.NoError(t, metrics.Flush())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `agent_bundles_fetch_attempts_total{outcome="transport"} 1`)
	assert.Contains(t, text, `agent_bundles_fetch_attempts_total{outcome="success"} 2`)
	assert.Contains(t, text, `agent_bundles_bundles_total{gateway="false",result="failed"} 1`)
	assert.Contains(t, text, `agent_bundles_bundles_total{gateway="true",result="fetched"} 1`)
	assert.Contains(t, text, "agent_bundles_fetch_attempt_duration_seconds_bucket")
}

func TestNoopMetrics(t *testing.T) {
	var m NoopMetrics
	m.ObserveAttempt("a", "success", time.Second)
	m.ObserveBundle("a", true, true)
	require.NoError(t, m.Flush())
}

package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("riskledger")

	m.FindingsProcessed.Add(3)
	m.TierMatches.WithLabelValues("hard_rules").Inc()
	m.TierMatches.WithLabelValues("unmapped").Add(2)
	m.FinancialExposure.Add(1250.5)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.FindingsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TierMatches.WithLabelValues("hard_rules")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TierMatches.WithLabelValues("unmapped")))
	assert.Equal(t, 1250.5, testutil.ToFloat64(m.FinancialExposure))
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not panic on duplicate registration.
	a := NewMetrics("riskledger")
	b := NewMetrics("riskledger")

	a.FindingsProcessed.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FindingsProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FindingsProcessed))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("riskledger")
	m.FindingsProcessed.Add(7)

	path := filepath.Join(t.TempDir(), "riskledger.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "riskledger_findings_processed_total 7")
}

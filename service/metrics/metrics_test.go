package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestRecordRPCCall(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRPCCall("getBalance", "success", "mainnet", 0.12)
	m.RecordRPCCall("getBalance", "success", "mainnet", 0.08)
	m.RecordRPCCall("getAccountInfo", "error", "mainnet", 1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.solanaRPCCallsTotal.WithLabelValues("getBalance", "success", "mainnet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solanaRPCCallsTotal.WithLabelValues("getAccountInfo", "error", "mainnet")))
}

func TestRecordTokenLookup(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordTokenLookup("sender", "mint", "found", 150000)
	m.RecordTokenLookup("destination", "mint", "missing", 0)

	assert.Equal(t, 150000.0, testutil.ToFloat64(m.tokenBalance.WithLabelValues("sender", "mint")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenLookupsTotal.WithLabelValues("destination", "missing")))
	// Missing accounts never create a balance series.
	assert.Equal(t, 1, testutil.CollectAndCount(m.tokenBalance))
}

func TestRecordVerdict(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordVerdict("met", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requirementsMet))

	m.RecordVerdict("not_met", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requirementsMet))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdictTotal.WithLabelValues("not_met")))
	assert.Greater(t, testutil.ToFloat64(m.lastCheckTimestamp), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordNativeBalance("sender", "So11111111111111111111111111111111111111112", 10_000_000)

	path := filepath.Join(t.TempDir(), "preflight.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `preflight_native_balance_lamports{address="So11111111111111111111111111111111111111112",role="sender"} 1e+07`)
}

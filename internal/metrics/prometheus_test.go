package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Issued(TypeAccessToken)
	m.Issued(TypeAccessToken)
	m.Issued(TypeCode)
	m.Refreshed()
	m.Revoked()
	m.Demoted()
	m.ValidationFailed("invalid_code")
	m.ValidationFailed("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues(TypeAccessToken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues(TypeCode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensRefreshedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensRevokedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PastTokensTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ValidationFailures))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Issued(TypeCode)
		m.Refreshed()
		m.Revoked()
		m.Demoted()
		m.ValidationFailed("x")
	})
}

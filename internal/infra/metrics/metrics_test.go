package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLookup(true, 3)
	m.ObserveLookup(false, 5)
	m.IncRegistration(OutcomeRegistered)
	m.IncRegistration(OutcomeRegistered)
	m.IncSubmitFailure("network")
	m.IncCardNotAvailable()
	m.SetActiveDialogs(4)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Lookups.WithLabelValues("found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Lookups.WithLabelValues("missed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeRegistered)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubmitFailures.WithLabelValues("network")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CardNotAvailable))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.ActiveDialogs))

	count, err := testutil.GatherAndCount(reg, "onboarding_lookup_attempts")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup(true, 1)
		m.IncRegistration(OutcomeCancelled)
		m.IncSubmitFailure("unknown")
		m.IncCardNotAvailable()
		m.SetActiveDialogs(1)
	})
}

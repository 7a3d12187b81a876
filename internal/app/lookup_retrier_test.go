package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_onboarding_bot/internal/domain/customer"
	"crm_onboarding_bot/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhone = customer.Phone("79161234567")

func TestLookupRetrier_SingleAttemptHit(t *testing.T) {
	gw := &fakeGateway{lookups: []lookupResult{hit("1001")}}
	waits := &recordedWaits{}
	r := NewLookupRetrier(gw, nil, testLogger()).WithWait(waits.Wait)

	record, found := r.Find(context.Background(), testPhone, SingleLookupAttempts, 0)

	require.True(t, found)
	assert.Equal(t, "1001", record.CardNumber)
	assert.Equal(t, 1, gw.LookupCalls())
	assert.Empty(t, waits.Delays())
}

func TestLookupRetrier_PollsUntilFound(t *testing.T) {
	gw := &fakeGateway{lookups: []lookupResult{miss(), miss(), hit("1002")}}
	waits := &recordedWaits{}
	r := NewLookupRetrier(gw, nil, testLogger()).WithWait(waits.Wait)

	record, found := r.Find(context.Background(), testPhone, DefaultPollAttempts, DefaultPollDelay)

	require.True(t, found)
	assert.Equal(t, "1002", record.CardNumber)
	assert.Equal(t, 3, gw.LookupCalls())
	assert.Equal(t, []time.Duration{DefaultPollDelay, DefaultPollDelay}, waits.Delays())
}

func TestLookupRetrier_ErrorsCountAsMisses(t *testing.T) {
	gw := &fakeGateway{lookups: []lookupResult{{err: errors.New("boom")}}}
	waits := &recordedWaits{}
	r := NewLookupRetrier(gw, nil, testLogger()).WithWait(waits.Wait)

	record, found := r.Find(context.Background(), testPhone, 4, 10*time.Millisecond)

	assert.False(t, found)
	assert.Nil(t, record)
	assert.Equal(t, 4, gw.LookupCalls())
	assert.Len(t, waits.Delays(), 3, "no wait after the last attempt")
}

func TestLookupRetrier_StopsWhenContextEnds(t *testing.T) {
	gw := &fakeGateway{}
	r := NewLookupRetrier(gw, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found := r.Find(ctx, testPhone, 5, time.Hour)

	assert.False(t, found)
	assert.Equal(t, 1, gw.LookupCalls())
}

func TestLookupRetrier_NonPositiveAttemptsMeansOne(t *testing.T) {
	gw := &fakeGateway{}
	r := NewLookupRetrier(gw, nil, testLogger())

	_, found := r.Find(context.Background(), testPhone, 0, 0)

	assert.False(t, found)
	assert.Equal(t, 1, gw.LookupCalls())
}

func TestLookupRetrier_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	gw := &fakeGateway{lookups: []lookupResult{miss(), hit("1003")}}
	r := NewLookupRetrier(gw, m, testLogger()).WithWait((&recordedWaits{}).Wait)

	_, found := r.Find(context.Background(), testPhone, 3, time.Millisecond)
	require.True(t, found)
	_, found = r.Find(context.Background(), customer.Phone("79990000000"), SingleLookupAttempts, 0)
	require.True(t, found, "last scripted answer repeats")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Lookups.WithLabelValues("found")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Lookups.WithLabelValues("missed")))
}

func lookupAttemptsSum(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "onboarding_lookup_attempts" {
			require.Len(t, f.GetMetric(), 1)
			return f.GetMetric()[0].GetHistogram().GetSampleSum()
		}
	}
	t.Fatal("onboarding_lookup_attempts not registered")
	return 0
}

func TestLookupRetrier_InterruptedMissRecordsAttemptsMade(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	gw := &fakeGateway{}
	calls := 0
	r := NewLookupRetrier(gw, m, testLogger()).WithWait(func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 2 {
			return context.Canceled
		}
		return nil
	})

	_, found := r.Find(context.Background(), testPhone, DefaultPollAttempts, DefaultPollDelay)

	assert.False(t, found)
	assert.Equal(t, 2, gw.LookupCalls())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Lookups.WithLabelValues("missed")))
	assert.Equal(t, float64(2), lookupAttemptsSum(t, reg))
}

func TestLookupRetrier_FullMissRecordsAllAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	gw := &fakeGateway{}
	r := NewLookupRetrier(gw, m, testLogger()).WithWait((&recordedWaits{}).Wait)

	_, found := r.Find(context.Background(), testPhone, 3, time.Millisecond)

	assert.False(t, found)
	assert.Equal(t, 3, gw.LookupCalls())
	assert.Equal(t, float64(3), lookupAttemptsSum(t, reg))
}

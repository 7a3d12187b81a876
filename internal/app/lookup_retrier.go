package app

import (
	"context"
	"time"

	"crm_onboarding_bot/internal/domain/customer"
	"crm_onboarding_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// Lookup modes.
const (
	SingleLookupAttempts = 1
	DefaultPollAttempts  = 5
	DefaultPollDelay     = 1000 * time.Millisecond
)

// WaitFunc suspends the caller for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LookupRetrier runs CRM lookups with a bounded number of attempts.
// It serves both the existing-vs-new decision and the polling that follows a registration.
type LookupRetrier struct {
	gateway customer.Gateway
	wait    WaitFunc
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

func NewLookupRetrier(gateway customer.Gateway, m *metrics.Metrics, logger *logrus.Entry) *LookupRetrier {
	return &LookupRetrier{
		gateway: gateway,
		wait:    sleepContext,
		metrics: m,
		logger:  logger.WithField("component", "lookup_retrier"),
	}
}

// WithWait replaces the delay implementation. Used by tests.
func (r *LookupRetrier) WithWait(wait WaitFunc) *LookupRetrier {
	r.wait = wait
	return r
}

// Find performs up to maxAttempts lookups, waiting delay between them, and returns the first
// card found. Lookup errors count as a miss for that attempt and do not stop the loop.
func (r *LookupRetrier) Find(ctx context.Context, phone customer.Phone, maxAttempts int, delay time.Duration) (*customer.Record, bool) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	logCtx := r.logger.WithFields(logrus.Fields{
		"phone":        phone.String(),
		"max_attempts": maxAttempts,
	})

	attempt := 1
	for ; attempt <= maxAttempts; attempt++ {
		records, err := r.gateway.Lookup(ctx, phone)
		switch {
		case err != nil:
			logCtx.WithError(err).WithField("attempt", attempt).Warn("Customer lookup failed, counting as a miss")
		case len(records) > 0:
			logCtx.WithField("attempt", attempt).Info("Customer found")
			r.metrics.ObserveLookup(true, attempt)
			record := records[0]
			return &record, true
		default:
			logCtx.WithField("attempt", attempt).Debug("Customer not found")
		}

		if attempt == maxAttempts {
			break
		}
		if err := r.wait(ctx, delay); err != nil {
			logCtx.WithError(err).Warn("Lookup retries interrupted")
			break
		}
	}

	r.metrics.ObserveLookup(false, attempt)
	logCtx.WithField("attempts", attempt).Info("Customer not found")
	return nil, false
}

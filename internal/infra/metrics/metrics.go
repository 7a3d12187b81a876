package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes.
const (
	OutcomeRegistered = "registered"
	OutcomeCancelled  = "cancelled"
	OutcomeExhausted  = "exhausted"
	OutcomeExpired    = "expired"
	OutcomeFailed     = "failed"
)

// Metrics holds all Prometheus metrics for the bot. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Lookups          *prometheus.CounterVec
	LookupAttempts   prometheus.Histogram
	Registrations    *prometheus.CounterVec
	SubmitFailures   *prometheus.CounterVec
	CardNotAvailable prometheus.Counter
	ActiveDialogs    prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_lookups_total",
			Help: "Customer lookups by result (found/missed).",
		}, []string{"result"}),
		LookupAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboarding_lookup_attempts",
			Help:    "Number of CRM lookup attempts spent per lookup.",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_registrations_total",
			Help: "Finished registration dialogs by outcome.",
		}, []string{"outcome"}),
		SubmitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_submit_failures_total",
			Help: "Failed CRM registration calls by error kind.",
		}, []string{"kind"}),
		CardNotAvailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_card_not_available_total",
			Help: "Registrations whose card never became visible while polling.",
		}),
		ActiveDialogs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onboarding_active_dialogs",
			Help: "Registration dialogs currently waiting for operator input.",
		}),
	}
}

func (m *Metrics) ObserveLookup(found bool, attempts int) {
	if m == nil {
		return
	}
	result := "missed"
	if found {
		result = "found"
	}
	m.Lookups.WithLabelValues(result).Inc()
	m.LookupAttempts.Observe(float64(attempts))
}

func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSubmitFailure(kind string) {
	if m == nil {
		return
	}
	m.SubmitFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCardNotAvailable() {
	if m == nil {
		return
	}
	m.CardNotAvailable.Inc()
}

func (m *Metrics) SetActiveDialogs(n int) {
	if m == nil {
		return
	}
	m.ActiveDialogs.Set(float64(n))
}

package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type signupMetrics struct {
	signups *prometheus.CounterVec
}

// newSignupMetrics returns nil when reg is nil; a nil *signupMetrics records nothing.
func newSignupMetrics(reg prometheus.Registerer) *signupMetrics {
	if reg == nil {
		return nil
	}

	m := &signupMetrics{
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_signups_total",
				Help: "Waitlist signup attempts by result.",
			},
			[]string{"result"},
		),
	}

	if err := reg.Register(m.signups); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				m.signups = existing
				return m
			}
		}
		return nil
	}

	return m
}

// resultEmpty labels submissions that were ignored because no email was given.
const resultEmpty = "empty"

func (m *signupMetrics) observe(result string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

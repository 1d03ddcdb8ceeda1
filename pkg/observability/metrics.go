package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/policydesk/pkg/domain"
)

// Metrics holds the wizard counters.
type Metrics struct {
	StepVisits         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Outcomes           *prometheus.CounterVec
}

// NewMetrics creates the wizard counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_wizard_step_visits_total",
				Help: "Total number of wizard step entries",
			},
			[]string{"wizard", "step"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_wizard_validation_failures_total",
				Help: "Total number of rejected wizard transitions",
			},
			[]string{"wizard", "step"},
		),
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_wizard_outcomes_total",
				Help: "Total number of finished or cancelled wizard runs",
			},
			[]string{"wizard", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.StepVisits, m.ValidationFailures, m.Outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the counters.
func (m *Metrics) Hooks() domain.WizardHooks {
	return domain.WizardHooks{
		OnStepEnter: func(ctx context.Context, e *domain.WizardEvent) {
			m.StepVisits.WithLabelValues(e.Wizard, e.StepLabel).Inc()
		},
		OnValidationFailed: func(ctx context.Context, e *domain.WizardEvent) {
			m.ValidationFailures.WithLabelValues(e.Wizard, e.StepLabel).Inc()
		},
		OnFinish: func(ctx context.Context, e *domain.WizardEvent) {
			m.Outcomes.WithLabelValues(e.Wizard, "finished").Inc()
		},
		OnCancel: func(ctx context.Context, e *domain.WizardEvent) {
			m.Outcomes.WithLabelValues(e.Wizard, "cancelled").Inc()
		},
	}
}

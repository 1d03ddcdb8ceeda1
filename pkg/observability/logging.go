package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/policydesk/pkg/domain"
)

// LoggingHooks logs every wizard event at info level.
func LoggingHooks(logger *slog.Logger) domain.WizardHooks {
	log := func(msg string) func(context.Context, *domain.WizardEvent) {
		return func(ctx context.Context, e *domain.WizardEvent) {
			logger.InfoContext(ctx, msg,
				"wizard", e.Wizard,
				"step", e.StepIndex,
				"label", e.StepLabel,
				"detail", e.Message,
			)
		}
	}
	return domain.WizardHooks{
		OnStepEnter:        log("step_enter"),
		OnStepLeave:        log("step_leave"),
		OnValidationFailed: log("validation_failed"),
		OnFinish:           log("wizard_finish"),
		OnCancel:           log("wizard_cancel"),
	}
}

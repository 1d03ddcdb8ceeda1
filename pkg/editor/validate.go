package editor

import (
	"strings"

	"github.com/aretw0/policydesk/pkg/domain"
)

// Required fails with "<name> may not be empty" when value is blank.
func Required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(name, "%s may not be empty", name)
	}
	return nil
}

// OneOf fails when value is not one of choices.
func OneOf(name, value string, choices []string) error {
	for _, c := range choices {
		if c == value {
			return nil
		}
	}
	return domain.NewValidationError(name, "%s must be one of: %s", name, strings.Join(choices, ", "))
}

// Trimmed returns s without surrounding whitespace.
func Trimmed(s string) string {
	return strings.TrimSpace(s)
}

// Chain runs validators in order and returns the first failure.
func Chain[T any](validators ...domain.Validator[T]) domain.Validator[T] {
	return domain.ValidatorFunc[T](func(model T) error {
		for _, v := range validators {
			if err := v.Validate(model); err != nil {
				return err
			}
		}
		return nil
	})
}

package domain

// Validator checks a model and returns nil or a *ValidationError.
type Validator[T any] interface {
	Validate(model T) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[T any] func(model T) error

func (f ValidatorFunc[T]) Validate(model T) error {
	return f(model)
}

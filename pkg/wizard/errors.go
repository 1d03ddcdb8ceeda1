package wizard

import "fmt"

// CompletionError reports that the completion hook or the settings builder
// rejected the finalized settings. The wizard stays open.
type CompletionError struct {
	Wizard string
	Err    error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("wizard '%s' could not complete: %v", e.Wizard, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

package forecast

import "fmt"

// InvalidInputError reports a request rejected during validation.
// Validation runs to completion before any propagation, so a request
// that fails it has computed nothing.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

package propagation

import (
	"fmt"
	"time"
)

// Reason classifies why propagation failed for a given instant.
type Reason string

const (
	// ReasonInit: the element set could not initialize the SGP4 model.
	ReasonInit Reason = "init"
	// ReasonNaN: the propagator produced NaN/Inf output (typically a
	// decayed or numerically degenerate element set).
	ReasonNaN Reason = "nan_output"
	// ReasonMagnitude: the output position is not physically plausible
	// for an Earth orbit.
	ReasonMagnitude Reason = "bad_magnitude"
)

// Error reports a deterministic propagation failure for one
// (elements, timestamp) pair. It always carries the failing timestamp;
// the caller decides whether the failure aborts a whole request or is
// recorded per-sample.
type Error struct {
	CatalogNumber int
	At            time.Time // zero for init failures, which precede any timestamp
	Reason        Reason
	Err           error
}

func (e *Error) Error() string {
	if e.At.IsZero() {
		return fmt.Sprintf("propagation failed for catalog %d (%s): %v", e.CatalogNumber, e.Reason, e.Err)
	}
	return fmt.Sprintf("propagation failed for catalog %d at %s (%s): %v",
		e.CatalogNumber, e.At.UTC().Format(time.RFC3339), e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Package propagation turns orbital elements into inertial state
// vectors. The numerical model (SGP4) is consumed as a black box
// behind the Source interface, so the pass detector and link budget
// can be tested against scripted trajectories.
package propagation

import (
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// Source yields the TEME state of one satellite at a timestamp.
// Implementations must be deterministic: identical timestamps yield
// identical states. Failures are reported as *Error.
type Source interface {
	StateAt(t time.Time) (transform.StateTEME, error)
}

// Sampler wraps a Source with a per-request memo so the same
// (elements, timestamp) state is computed once when pass detection and
// margin computation visit the same grid. It is not safe for
// concurrent use and must not outlive the request.
type Sampler struct {
	src  Source
	memo map[int64]transform.StateTEME
}

// NewSampler creates a Sampler over src.
func NewSampler(src Source) *Sampler {
	return &Sampler{
		src:  src,
		memo: make(map[int64]transform.StateTEME),
	}
}

// StateAt returns the memoized state for t, computing it on first use.
// Errors are never memoized; a failing timestamp fails on every visit.
func (s *Sampler) StateAt(t time.Time) (transform.StateTEME, error) {
	key := t.UnixNano()
	if st, ok := s.memo[key]; ok {
		return st, nil
	}
	st, err := s.src.StateAt(t)
	if err != nil {
		return transform.StateTEME{}, err
	}
	s.memo[key] = st
	return st, nil
}

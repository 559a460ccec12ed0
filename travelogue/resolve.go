package travelogue

import (
	"time"
)

// DefaultMaxAge is how long a last known location remains fresh enough to
// assign to a later, unlocated artifact. A day covers the common case of a
// morning photo taken before the day's track starts recording; anything
// older is too stale to be a useful guess.
const DefaultMaxAge time.Duration = 24 * time.Hour

// Resolver assigns locations to artifacts that lack one. The input must be
// sorted by timestamp (ties broken by source path); the output is the same
// slice with gaps filled. Implementations must mark every location they
// assign as approximated so the distinction from intrinsic locations is
// never lost.
type Resolver interface {
	Resolve(artifacts []*Artifact) []*Artifact
}

// ForwardFill is the placeholder resolution policy: carry the most recent
// preceding located artifact's end position forward and assign it to
// unlocated artifacts. It never fills backward, so artifacts that precede
// the first located one stay unlocated rather than guessing. A future
// interpolating resolver is a drop-in replacement.
type ForwardFill struct {
	// MaxAge bounds how stale the carried location may be. Zero or
	// negative means DefaultMaxAge.
	MaxAge time.Duration
}

// NewForwardFill returns a ForwardFill resolver with the default staleness
// horizon.
func NewForwardFill() *ForwardFill {
	return &ForwardFill{
		MaxAge: DefaultMaxAge,
	}
}

// Resolve fills locations forward over a timestamp-sorted artifact slice.
// The fold carries a single last-known-location accumulator; no state
// survives between calls.
func (r *ForwardFill) Resolve(artifacts []*Artifact) []*Artifact {

	max_age := r.MaxAge

	if max_age <= 0 {
		max_age = DefaultMaxAge
	}

	var last_location *Artifact

	for _, a := range artifacts {

		if a.Located() {

			if _, ok := a.EndPosition(); ok {
				last_location = a
			}

			continue
		}

		if last_location == nil {
			continue
		}

		if a.Timestamp.Sub(last_location.EndTime()) > max_age {
			continue
		}

		pt, _ := last_location.EndPosition()

		a.Geometry = pt
		a.Approximated = true
	}

	return artifacts
}

package filters

import "errors"

// FilterDesignError reports parameters that no filter can be designed for:
// an unknown band type, a non-positive order, a wrong number of critical
// frequencies, or a critical frequency outside (0, fs/2).
type FilterDesignError struct {
	Reason string
}

func (e *FilterDesignError) Error() string {
	return "filter design: " + e.Reason
}

// ErrSignalTooShort is returned by zero-phase filtering when the input has
// no more samples than the edge padding needs.
var ErrSignalTooShort = errors.New("signal too short for zero-phase filtering")

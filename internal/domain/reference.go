package domain

import "errors"

// ErrInvalidSourceCode is returned when the source postal code is not in the
// reference data. Callers treat it as "no results", never as a fault.
var ErrInvalidSourceCode = errors.New("invalid source code")

// ReferencePoint is one postal code from the reference dataset.
type ReferencePoint struct {
	Code   string  `json:"code"`
	City   string  `json:"city"`
	State  string  `json:"state"`
	County string  `json:"county,omitempty"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// ReferenceSet is the static, pre-loaded postal code dataset.
type ReferenceSet interface {
	// Lookup returns the point for an exact code.
	Lookup(code string) (ReferencePoint, bool)

	// All enumerates every point in load order.
	All() []ReferencePoint
}

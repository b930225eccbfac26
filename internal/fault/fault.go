// Package fault defines the failure kinds shared by the golden-hour packages.
// Specific errors wrap one of these so callers can branch with errors.Is.
package fault

import "errors"

var (
	// ErrInvalidArgument marks input that can never succeed: empty sample
	// lists, out-of-range coordinates, missing required forecast fields.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUndefinedSolarEvent marks a date/location where sunrise or sunset
	// does not happen (polar day or polar night).
	ErrUndefinedSolarEvent = errors.New("undefined solar event")

	// ErrUpstreamUnavailable marks a failing collaborator: the ephemeris,
	// the forecast provider or the geocoder.
	ErrUpstreamUnavailable = errors.New("upstream data unavailable")
)

package store

import "errors"

// Lookup outcomes the presentation layer renders as "no data" rather than
// failing. Compare with errors.Is.
var (
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrNoDataForPeriod  = errors.New("no data for period")
	ErrInvalidLimit     = errors.New("limit must be a positive integer")
)

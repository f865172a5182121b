package store

import "errors"

var (
	// ErrManualNotFound is returned when a manual does not exist.
	ErrManualNotFound = errors.New("manual not found")
)

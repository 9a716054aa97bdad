package domain

import "errors"

// Error taxonomy for the federation core. Handlers map these to HTTP codes,
// everything else bubbles up as a 500.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrAuth            = errors.New("authentication failed")
	ErrPeerUnreachable = errors.New("peer unreachable")
	ErrConflict        = errors.New("conflict")
)

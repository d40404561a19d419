package shared

import "errors"

// Error kinds shared across domain modules. Services wrap these with
// fmt.Errorf("pkg: detail: %w", kind) so callers can classify failures
// with errors.Is while keeping a human-readable message.
var (
	// ErrNotFound indicates a period, user, or praise id could not be resolved.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or out-of-policy input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates an operation attempted against a period in
	// the wrong status or outside its allowed time window.
	ErrInvalidState = errors.New("invalid state")
	// ErrDomain indicates referential corruption, such as a duplicate
	// quantification whose original cannot be resolved.
	ErrDomain = errors.New("domain integrity violation")
)

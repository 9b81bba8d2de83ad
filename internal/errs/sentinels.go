// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrValidation indicates client-side validation failed; nothing was sent.
	ErrValidation = errors.New("validation failed")

	// ErrTransport indicates the server could not be reached or replied with garbage.
	ErrTransport = errors.New("transport error")

	// ErrRemote indicates the server rejected the request with a message.
	ErrRemote = errors.New("remote error")

	// ErrUnauthorized indicates a missing, stale or rejected bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the current user lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBusy indicates the same logical operation is already in flight.
	ErrBusy = errors.New("operation in progress")

	// ErrCooldown indicates a resend was attempted before the cooldown elapsed.
	ErrCooldown = errors.New("cooldown active")

	// ErrNoCasesRemaining indicates the user's case allowance is exhausted.
	ErrNoCasesRemaining = errors.New("no cases remaining")

	// ErrInvalidStep indicates a wizard action that does not apply to the current step.
	ErrInvalidStep = errors.New("action not valid in current step")

	// ErrNoToken indicates no usable token is stored locally.
	ErrNoToken = errors.New("no valid token (login required)")
)

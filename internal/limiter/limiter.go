// Package limiter defines interfaces and implementations for client-side
// throttling of repeatable actions such as resending a verification code.
package limiter

import "time"

// Limiter gates a repeatable action.
type Limiter interface {
	// Allow reports whether the action may run now, and otherwise how long remains.
	Allow() (bool, time.Duration)
	// Success records a completed action; it may start a cooldown.
	Success()
	// Stop abandons any running cooldown.
	Stop()
}

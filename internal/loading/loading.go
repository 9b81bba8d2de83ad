// Package loading tracks which logical operations have a request in flight.
//
// Each operation group has its own flag, so a pending login never blocks a
// pending like. A group admits one call at a time.
package loading

import (
	"sync"

	"github.com/and161185/appealkit/internal/errs"
)

// Op names a logical operation group.
type Op string

// Operation groups used by the client.
const (
	OpLogin          Op = "login"
	OpRegister       Op = "register"
	OpVerify         Op = "verify"
	OpResend         Op = "resend"
	OpForgotPassword Op = "forgot-password"
	OpResetPassword  Op = "reset-password"
	OpSubmitCase     Op = "submit-case"
	OpListCases      Op = "list-cases"
	OpCheckout       Op = "checkout"
	OpCreatePlan     Op = "create-plan"
	OpLike           Op = "like"
	OpDislike        Op = "dislike"
)

// For scopes op to one entity, e.g. the like button of one analysis.
func (op Op) For(id string) Op { return op + ":" + Op(id) }

// Flags is a set of per-operation loading flags. The zero value is ready to use.
type Flags struct {
	mu     sync.Mutex
	active map[Op]bool
}

// TryStart raises the flag for op. It reports errs.ErrBusy if op is already loading.
func (f *Flags) TryStart(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		f.active = map[Op]bool{}
	}
	if f.active[op] {
		return errs.ErrBusy
	}
	f.active[op] = true
	return nil
}

// Done lowers the flag for op.
func (f *Flags) Done(op Op) {
	f.mu.Lock()
	delete(f.active, op)
	f.mu.Unlock()
}

// Loading reports whether op is in flight.
func (f *Flags) Loading(op Op) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[op]
}

// Run executes fn with op's flag raised for its duration.
func (f *Flags) Run(op Op, fn func() error) error {
	if err := f.TryStart(op); err != nil {
		return err
	}
	defer f.Done(op)
	return fn()
}

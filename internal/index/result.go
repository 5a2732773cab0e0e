package index

import (
	"fmt"

	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

// Result is the outcome of a mutating index operation.
type Result struct {
	Success bool
	Err     error
}

// Succeeded returns a successful Result.
func Succeeded() Result {
	return Result{Success: true}
}

// Failed returns a failed Result carrying err.
func Failed(err error) Result {
	return Result{Err: err}
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Success {
		return "success"
	}
	return fmt.Sprintf("failure: %v", r.Err)
}

// resultOf runs fn and turns its error or panic into a failed Result.
func resultOf(fn func() error) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = Failed(sierrors.InternalError(fmt.Sprintf("index operation panicked: %v", p), nil))
		}
	}()

	if err := fn(); err != nil {
		return Failed(err)
	}
	return Succeeded()
}

// CreationStatus is the outcome of CreateIndex.
type CreationStatus int

const (
	// CreationFailure means the index could not be created.
	CreationFailure CreationStatus = iota
	// CreationSuccess means a new empty index was created.
	CreationSuccess
	// CreationAlreadyExists means an index was present and left untouched.
	CreationAlreadyExists
)

// String implements fmt.Stringer.
func (s CreationStatus) String() string {
	switch s {
	case CreationSuccess:
		return "success"
	case CreationAlreadyExists:
		return "already_exists"
	default:
		return "failure"
	}
}

package vtable

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidSpec is returned when an operator is constructed with invalid arguments.
	ErrInvalidSpec = errors.New("invalid operator spec")
	// ErrUnresolvedSource is returned when a plan references a source or sink which isn't bound.
	ErrUnresolvedSource = errors.New("unresolved source binding")
	// ErrSchemaMismatch is returned when a bound table's schema differs from the one recorded in the plan.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrRandomAccessUnsupported is returned when building a random access tree from a plan which can't support it.
	ErrRandomAccessUnsupported = errors.New("random access unsupported")
	// ErrIllegalState is returned on runtime contract violations.
	ErrIllegalState = errors.New("illegal state")
	// ErrNotImplemented is returned for unsupported type or operator combinations.
	ErrNotImplemented = errors.New("not implemented")
)

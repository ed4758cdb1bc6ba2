package core

import (
	"errors"
	"fmt"
)

var (
	ErrTerminated       = errors.New("node terminated")
	ErrDuplicateName    = errors.New("duplicate node name")
	ErrEmptyName        = errors.New("empty node name")
	ErrNilParent        = errors.New("nil parent")
	ErrForeignParent    = errors.New("parent belongs to another tree")
	ErrNilTransform     = errors.New("nil transform")
	ErrNotRoot          = errors.New("node is not a root")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrOutOfBounds      = errors.New("parameter value out of bounds")
	ErrInvalidParam     = errors.New("invalid parameter descriptor")
)

// ParamError reports a rejected SetParameter call. The parameter table is
// left unchanged whenever one is returned.
type ParamError struct {
	Node  string
	Name  string
	Value int
	Min   int
	Max   int
	Err   error
}

func (e *ParamError) Error() string {
	if errors.Is(e.Err, ErrOutOfBounds) {
		return fmt.Sprintf("node %q: parameter %q: value %d not in [%d, %d]: %v",
			e.Node, e.Name, e.Value, e.Min, e.Max, e.Err)
	}
	return fmt.Sprintf("node %q: parameter %q: %v", e.Node, e.Name, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// RecomputeError records a failed transform attempt. It stays attached to the
// node until a later attempt succeeds.
type RecomputeError struct {
	Node    string
	Attempt uint64
	Err     error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("node %q: recompute attempt %d failed: %v", e.Node, e.Attempt, e.Err)
}

func (e *RecomputeError) Unwrap() error { return e.Err }

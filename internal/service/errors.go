package service

import (
	"errors"
	"fmt"
)

// Validation and authorization outcomes surfaced to the boundary layer.
// Conflicts and duplicates are legitimate business results, never retried.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidInterval = errors.New("start must precede end")
	ErrConflict        = errors.New("booking conflicts with an existing booking")
	ErrUnauthorized    = errors.New("invalid name or pin")

	// ErrUnknownPrinter is a structural problem, so it matches ErrInvalidInput.
	ErrUnknownPrinter = fmt.Errorf("%w: unknown printer", ErrInvalidInput)
)

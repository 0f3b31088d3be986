// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrDuplicateName = errors.New("duplicate name")
	ErrNoActiveQuery = errors.New("no active query")
	ErrInvalidInput  = errors.New("invalid input")
)

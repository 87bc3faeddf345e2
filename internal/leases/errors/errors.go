package errors

import "errors"

var (
	ErrNotFound = errors.New("lease contract not found")

	ErrInvalidID = errors.New("invalid lease contract ID format")
)

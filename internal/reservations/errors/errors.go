package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrWindowConflict = errors.New("reservation window conflicts with existing reservation")
)

package models

import "errors"

var (
	// ErrNotFound is returned when a booking, package, hotel or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned when a package booking would overflow the package seats.
	ErrCapacityExceeded = errors.New("not enough seats available")

	// ErrNotAuthorized is returned when the actor does not own the target record.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrForbiddenRole is returned when the actor's role may not call the operation.
	ErrForbiddenRole = errors.New("role not permitted")

	ErrInvalidInput = errors.New("invalid input")

	// ErrPackageLocked is returned by the redis-lock capacity strategy while another
	// booking for the same package holds the lock.
	ErrPackageLocked = errors.New("package is being booked by another request")
)

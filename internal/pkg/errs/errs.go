// Package errs contains sentinel errors used across the client for stable error mapping.
package errs

import "errors"

// Remote authentication failures.
var (
	// ErrInvalidCredentials indicates the remote service rejected the login credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser indicates registration with an already-taken identity.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrValidationFailed indicates the remote service rejected the submitted payload.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnauthorized indicates an authenticated call was refused; the session must be cleared.
	ErrUnauthorized = errors.New("unauthorized")
)

// Remote data failures.
var (
	// ErrNotFound indicates the referenced entity no longer exists remotely.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock indicates the requested quantity exceeds remote stock.
	ErrOutOfStock = errors.New("out of stock")

	// ErrServiceUnavailable indicates a transport failure or a 5xx from the remote service.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Local validation failures. These are reported without a network call.
var (
	// ErrInvalidQuantity indicates a cart quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrItemBusy indicates a mutation for the same line item is already in flight.
	ErrItemBusy = errors.New("item mutation in flight")

	// ErrNonNumeric indicates a numeric form field that does not parse.
	ErrNonNumeric = errors.New("value is not numeric")

	// ErrNegative indicates a numeric form field below zero.
	ErrNegative = errors.New("value must not be negative")

	// ErrRequired indicates a missing required form field.
	ErrRequired = errors.New("value is required")
)

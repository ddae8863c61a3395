package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput marks malformed payloads, quantities or identifiers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is identified but lacks the admin claim.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream wraps failures of the catalog or identity collaborators.
	ErrUpstream = errors.New("upstream failure")
)

// Specific not-found conditions. All of them match ErrNotFound with errors.Is.
var (
	ErrCartNotFound  = fmt.Errorf("cart %w", ErrNotFound)
	ErrItemNotInCart = fmt.Errorf("item not in cart: %w", ErrNotFound)
	ErrItemNotFound  = fmt.Errorf("item %w", ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
)

// InvalidInput builds an ErrInvalidInput carrying a caller-facing reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

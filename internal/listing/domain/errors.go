package domain

import "errors"

var (
	// ErrListingNotFound is returned for unknown or malformed listing IDs.
	ErrListingNotFound = errors.New("listing not found")
	// ErrForbidden is returned when a non-owner tries to mutate a listing.
	ErrForbidden = errors.New("only the owner may modify this listing")
	// ErrValidation wraps every rejected input, e.g. a missing street address.
	ErrValidation = errors.New("validation failed")
	// ErrRepository wraps store failures.
	ErrRepository = errors.New("repository error")
	// ErrStorageUnavailable is returned when photo storage is not configured.
	ErrStorageUnavailable = errors.New("photo storage is not configured")
)

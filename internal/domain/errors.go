package domain

import "errors"

// Validation errors, terminal for the call. No partial writes occur.
var (
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("listing has ended")
	ErrBidTooLow        = errors.New("bid must be higher than the current price")
	ErrSelfBidForbidden = errors.New("cannot bid on your own listing")
)

// Concurrency and infrastructure errors.
var (
	// ErrConflict signals a serialization failure (lock wait timeout,
	// deadlock victim). Safe to retry with a fresh read.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrBusy signals the listing lock could not be acquired within the
	// bounded wait. The caller may retry.
	ErrBusy = errors.New("listing is busy")

	// ErrStoreFailure wraps any other persistence error. The unit of work
	// is rolled back and only a generic message reaches callers.
	ErrStoreFailure = errors.New("store failure")
)

package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist.
	ErrNotFound = errors.New("roster: item not found")

	// ErrAlreadyExists is returned when a conditional create finds an item with the same key.
	ErrAlreadyExists = errors.New("roster: item already exists")

	// ErrThrottled is returned when DynamoDB throttles the request.
	ErrThrottled = errors.New("roster: request throttled")

	// ErrUnknownTable is returned by Memory for tables it was not configured with.
	ErrUnknownTable = errors.New("roster: unknown table")
)

package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an entity with the same key already exists
	ErrConflict = errors.New("already exists")

	// ErrCorrupt is returned when stored data cannot be decoded
	ErrCorrupt = errors.New("corrupt stored data")
)

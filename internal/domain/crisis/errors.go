package crisis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a missing crisis update or an empty query result.
	ErrNotFound = errors.New("crisis update not found")
	// ErrInvalidInput indicates the payload failed field validation.
	ErrInvalidInput = errors.New("invalid crisis update input")
	// ErrNotAuthor indicates the caller may not mutate the crisis update.
	ErrNotAuthor = errors.New("caller is not the author of the crisis update")
)

// Violation names a field that is shorter than its minimum length.
type Violation struct {
	Field string `json:"field"`
	Min   int    `json:"min"`
}

// ValidationError lists every violated field. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s must be at least %d characters", v.Field, v.Min))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// QueryMiss reports an empty query result. It unwraps to ErrNotFound.
type QueryMiss struct {
	Query      string
	StoreEmpty bool
}

func (m *QueryMiss) Error() string {
	if m.StoreEmpty {
		return fmt.Sprintf("%s: no crisis updates stored", m.Query)
	}
	return fmt.Sprintf("%s: no crisis updates matched", m.Query)
}

func (m *QueryMiss) Unwrap() error {
	return ErrNotFound
}

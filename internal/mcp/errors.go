package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
)

// API error codes.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeInputValidationFailed = "INPUT_VALIDATION_FAILED"
	CodeAuthenticationFailed  = "AUTHENTICATION_FAILED"
	CodeInternal              = "INTERNAL"
)

// ErrUnknownMethod is returned by Handle for names it does not dispatch.
var ErrUnknownMethod = errors.New("unknown method")

// ErrInvalidParams wraps argument decoding failures.
var ErrInvalidParams = errors.New("invalid params")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to API error codes. Anything unrecognized is a
// storage or server fault and is reported as INTERNAL without its detail.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var miss *crisis.QueryMiss
	var verr *crisis.ValidationError
	switch {
	case errors.As(err, &miss):
		return &APIError{
			Code:    CodeNotFound,
			Message: miss.Error(),
			Details: map[string]any{"store_empty": miss.StoreEmpty},
		}
	case errors.Is(err, crisis.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Check the id with list_crisis_updates"}
	case errors.As(err, &verr):
		return &APIError{Code: CodeInputValidationFailed, Message: verr.Error(), Details: verr.Violations}
	case errors.Is(err, crisis.ErrInvalidInput), errors.Is(err, ErrInvalidParams):
		return &APIError{Code: CodeInputValidationFailed, Message: err.Error()}
	case errors.Is(err, crisis.ErrNotAuthor):
		return &APIError{Code: CodeAuthenticationFailed, Message: "only the author may modify this crisis update"}
	default:
		return &APIError{Code: CodeInternal, Message: "internal error"}
	}
}

package forumapi

import (
	"errors"

	"github.com/threadline/threadline/internal/forum"
)

// MutationResponse is the structured result of every mutating operation: a
// status code, success flag, message, and the affected post when there is
// one. Failures of the caller's making come back through this envelope, not
// as transport errors.
type MutationResponse struct {
	Code    int       `json:"code"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Post    *PostView `json:"post,omitempty"`
}

func successResponse(message string, post *PostView) *MutationResponse {
	return &MutationResponse{
		Code:    200,
		Success: true,
		Message: message,
		Post:    post,
	}
}

func failureResponse(err error) *MutationResponse {
	code, message := mutationStatus(err)
	return &MutationResponse{
		Code:    code,
		Success: false,
		Message: message,
	}
}

// mutationStatus maps a core error to a mutation-response status
func mutationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, forum.ErrValidation):
		return 400, err.Error()
	case errors.Is(err, forum.ErrUnauthorized):
		return 401, "Unauthorised"
	case errors.Is(err, forum.ErrNotFound):
		return 404, "Post not found."
	case errors.Is(err, forum.ErrConflict):
		return 409, "Conflicting update, please retry."
	default:
		return 500, "Internal server error"
	}
}

// isCallerFault reports whether an error should be delivered inside the
// mutation envelope rather than as a transport-level failure.
func isCallerFault(err error) bool {
	return errors.Is(err, forum.ErrValidation) ||
		errors.Is(err, forum.ErrUnauthorized) ||
		errors.Is(err, forum.ErrNotFound) ||
		errors.Is(err, forum.ErrConflict)
}

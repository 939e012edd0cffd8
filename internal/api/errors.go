package api

import (
	"errors"

	"github.com/threadline/threadline/internal/forum"
)

// jsonRPCStatus maps a core error to a JSON-RPC error code and message.
func jsonRPCStatus(err error) (int, string) {
	switch {
	case errors.Is(err, forum.ErrValidation):
		return ErrInvalidParams, "Invalid params"
	case errors.Is(err, forum.ErrNotFound):
		return ErrNotFound, "Not found"
	case errors.Is(err, forum.ErrUnauthorized):
		return ErrUnauthorized, "Unauthorized"
	case errors.Is(err, forum.ErrConflict):
		return ErrConflict, "Conflict"
	default:
		return ErrServerError, "Server error"
	}
}

package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/threadline/threadline/internal/forum"
)

func TestJSONRPCStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad cursor", forum.ErrValidation), ErrInvalidParams},
		{"not found", forum.ErrNotFound, ErrNotFound},
		{"unauthorized", forum.ErrUnauthorized, ErrUnauthorized},
		{"conflict", forum.ErrConflict, ErrConflict},
		{"store failure", &forum.StoreError{Op: "feed.list", Err: errors.New("timeout")}, ErrServerError},
		{"unknown", errors.New("disk on fire"), ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := jsonRPCStatus(tt.err)
			if code != tt.want {
				t.Errorf("jsonRPCStatus() code = %d, want %d", code, tt.want)
			}
			if message == "" {
				t.Error("jsonRPCStatus() message is empty")
			}
		})
	}
}

package ez

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"domain message kept", domain.NotFound("author"), http.StatusNotFound, "author not found"},
		{"wrapped sentinel uses sentinel text", fmt.Errorf("load: %w", domain.ErrConflict), http.StatusConflict, "conflict"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"invalid input", domain.E(domain.ErrInvalidInput, "year must be between 1000 and 9999"), http.StatusBadRequest, "year must be between 1000 and 9999"},
		{"forbidden", domain.E(domain.ErrForbidden, "only administrators can change roles"), http.StatusForbidden, "only administrators can change roles"},
		{"policy forbidden", auth.ErrForbidden, http.StatusForbidden, auth.ErrForbidden.Error()},
		{"action error passes through", Conflict("taken"), http.StatusConflict, "taken"},
		{"unknown is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal error"},
		{"internal action error is hidden", Internal("db exploded", errors.New("x")), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := FromError(tt.err)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.wantMsg, ae.Msg)
		})
	}
}

func TestFromError_KeepsCauseForLogging(t *testing.T) {
	cause := errors.New("pq: connection refused")
	ae := FromError(fmt.Errorf("list users: %w", cause))
	assert.ErrorIs(t, ae.Err, cause)
}

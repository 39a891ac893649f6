package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactories(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name      string
		err       *AppError
		code      string
		status    int
		retryable bool
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest, false},
		{"number format", NewInvalidNumberFormat("x"), CodeInvalidNumberFormat, http.StatusBadRequest, false},
		{"not found", NewNotFound("annotation", "1"), CodeNotFound, http.StatusNotFound, false},
		{"allocation conflict", NewAllocationConflict("min:2028", cause), CodeAllocationConflict, http.StatusConflict, true},
		{"exhausted", NewSequenceExhausted("min:2028", 999), CodeSequenceExhausted, http.StatusUnprocessableEntity, false},
		{"render", NewRenderFailure(cause), CodeRenderFailure, http.StatusInternalServerError, false},
		{"timeout", NewTimeout("convert", cause), CodeTimeout, http.StatusGatewayTimeout, true},
		{"internal", NewInternal(cause), CodeInternal, http.StatusInternalServerError, false},
		{"forbidden", NewForbidden("no"), CodeForbidden, http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("assign: %w", NewNotFound("number assignment", "doc-1"))

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "doc-1", appErr.Details["id"])
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAllocationConflict(err))

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestError_IncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternal(cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "VALIDATION_ERROR: bad", NewValidation("bad").Error())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"bad request", NewBadRequest(ReasonInvalidPayload, "bad json"), http.StatusBadRequest, ReasonInvalidPayload},
		{"wrapped", fmt.Errorf("decode: %w", NewNotFound(ReasonUnknownEvent, "no such hook")), http.StatusNotFound, ReasonUnknownEvent},
		{"forbidden", NewForbidden(ReasonForbidden, "temporary session"), http.StatusForbidden, ReasonForbidden},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, ReasonServiceUnavailable},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromError(tt.err).WithRequestID("req-1").WithRequest(http.MethodPost, "/x")
			assert.False(t, resp.Success)
			assert.Equal(t, tt.status, resp.HTTPStatus())
			assert.Equal(t, tt.reason, resp.ErrorCode)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

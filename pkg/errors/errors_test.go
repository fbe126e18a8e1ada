package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NotFound("slot", nil), http.StatusNotFound},
		{Validation(ReasonInvalidSlot, "bad"), http.StatusBadRequest},
		{NotAuthenticated(nil), http.StatusUnauthorized},
		{AccessDenied("no"), http.StatusForbidden},
		{Conflict(ReasonSlotFull, "full"), http.StatusConflict},
		{Unavailable(nil), http.StatusServiceUnavailable},
		{Internal(nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode(), "reason %s", tc.err.Reason)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Unavailable(nil).Retryable())
	assert.False(t, Conflict(ReasonSlotFull, "full").Retryable())
	assert.False(t, Internal(nil).Retryable())
}

func TestReasonExtractionThroughWrapping(t *testing.T) {
	err := Conflict(ReasonResultAlreadyExists, "request already has a result")
	wrapped := fmt.Errorf("filing result: %w", err)

	assert.Equal(t, ErrConflict, CodeOf(wrapped))
	assert.Equal(t, ReasonResultAlreadyExists, ReasonOf(wrapped))
	assert.True(t, HasReason(wrapped, ReasonResultAlreadyExists))
	assert.False(t, HasReason(wrapped, ReasonSlotFull))

	// Unknown errors map to internal.
	plain := errors.New("boom")
	assert.Equal(t, ErrInternal, CodeOf(plain))
	assert.Equal(t, ReasonInternal, ReasonOf(plain))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row missing")
	err := NotFound("slot", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "slot not found")
}

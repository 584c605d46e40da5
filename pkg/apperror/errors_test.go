package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("VAL_001", "amount: must be positive", http.StatusBadRequest)
	assert.Equal(t, "[VAL_001] amount: must be positive", e.Error())

	inner := errors.New("pq: connection refused")
	wrapped := Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, inner)
	assert.Contains(t, wrapped.Error(), "SYS_001")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: i/o timeout")
	e := ErrGatewayUnavailable(inner)

	assert.ErrorIs(t, e, inner)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("processing: %w", e), &appErr))
	assert.Equal(t, "GW_002", appErr.Code)
}

func TestErrorConstructors_HTTPStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrValidationFailed("amount", "must be positive"), "VAL_001", http.StatusBadRequest},
		{ErrAuthenticationFailed(), "AUTH_001", http.StatusUnauthorized},
		{ErrAuthorizationDenied(), "AUTH_002", http.StatusForbidden},
		{ErrIneligibleMerchant(), "PAY_001", http.StatusForbidden},
		{ErrCurrencyMismatch("USD"), "PAY_002", http.StatusBadRequest},
		{ErrAmountBelowMinimum(100), "PAY_003", http.StatusBadRequest},
		{ErrNotFound("transaction"), "PAY_004", http.StatusNotFound},
		{ErrPaymentFailed(errors.New("declined")), "GW_001", http.StatusPaymentRequired},
		{ErrGatewayUnavailable(errors.New("timeout")), "GW_002", http.StatusBadGateway},
		{ErrPersistenceFailure(errors.New("down")), "SYS_001", http.StatusInternalServerError},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestErrValidationFailed_NamesField(t *testing.T) {
	e := ErrValidationFailed("currency", "must be a 3-letter code")
	assert.Equal(t, "currency: must be a 3-letter code", e.Message)
}

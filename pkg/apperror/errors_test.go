package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_001", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[LED_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("LED_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "LED_001", 402},
		{"InvalidAmount", ErrInvalidAmount("must be positive"), "LED_002", 400},
		{"DuplicateInFlight", ErrDuplicateInFlight(), "LED_003", 409},
		{"NotFound", ErrNotFound("Wallet"), "LED_004", 404},
		{"InvalidCurrency", ErrInvalidCurrency("XYZ"), "LED_005", 400},
		{"InvalidRequest", ErrInvalidRequest("bad wallet pair"), "LED_006", 400},
		{"NotPending", ErrNotPending("completed"), "LED_007", 409},
		{"WalletInactive", ErrWalletInactive(), "LED_008", 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestVerificationErrors(t *testing.T) {
	err := ErrNotVerified("documents", "biometric")
	assert.Equal(t, "KYC_001", err.Code)
	assert.Equal(t, 403, err.HTTPStatus)
	assert.Contains(t, err.Message, "documents")
	assert.Contains(t, err.Message, "biometric")

	rejected := ErrVerificationRejected()
	assert.Equal(t, "KYC_002", rejected.Code)
	assert.Equal(t, 403, rejected.HTTPStatus)

	role := ErrRoleNotAllowed("merchant", "send")
	assert.Equal(t, "KYC_003", role.Code)
	assert.Contains(t, role.Message, "merchant")
	assert.Contains(t, role.Message, "send")
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"UsernameExists", ErrUsernameExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"UserDisabled", ErrUserDisabled(), "AUTH_004", 403},
		{"InvalidCallbackSignature", ErrInvalidCallbackSignature(), "AUTH_005", 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Transaction")
	assert.Contains(t, err.Message, "Transaction")
	assert.Equal(t, "LED_004", err.Code)
}

package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient available balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount(detail string) *AppError {
	return New("LED_002", "Invalid amount: "+detail, http.StatusBadRequest)
}

// ErrDuplicateInFlight is returned when a submission races an earlier
// attempt with the same idempotency key that has not finished yet.
func ErrDuplicateInFlight() *AppError {
	return New("LED_003", "A submission with this idempotency key is already in progress", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidCurrency(code string) *AppError {
	return New("LED_005", fmt.Sprintf("Unsupported currency: %s", code), http.StatusBadRequest)
}

func ErrInvalidRequest(detail string) *AppError {
	return New("LED_006", detail, http.StatusBadRequest)
}

// ErrNotPending rejects settlement or cancellation of a transaction that
// already reached a terminal state.
func ErrNotPending(status string) *AppError {
	return New("LED_007", fmt.Sprintf("Transaction is already %s", status), http.StatusConflict)
}

func ErrWalletInactive() *AppError {
	return New("LED_008", "Wallet is deactivated", http.StatusUnprocessableEntity)
}

// ---- Verification Gate (KYC) ----

// ErrNotVerified names the missing verification steps so the caller can
// route the user to complete them.
func ErrNotVerified(missing ...string) *AppError {
	msg := "Operation requires identity verification"
	if len(missing) > 0 {
		msg = fmt.Sprintf("%s: missing %s", msg, strings.Join(missing, ", "))
	}
	return New("KYC_001", msg, http.StatusForbidden)
}

func ErrVerificationRejected() *AppError {
	return New("KYC_002", "Identity verification was rejected", http.StatusForbidden)
}

func ErrRoleNotAllowed(role string, operation string) *AppError {
	return New("KYC_003", fmt.Sprintf("Role %s may not perform %s", role, operation), http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUserDisabled() *AppError {
	return New("AUTH_004", "User account is disabled", http.StatusForbidden)
}

func ErrInvalidCallbackSignature() *AppError {
	return New("AUTH_005", "Invalid callback signature", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_006-style validation error.
func Validation(message string) *AppError {
	return New("LED_006", message, http.StatusBadRequest)
}

package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Message is safe to show to callers; Err carries internal detail (provider
// responses, SQL errors) and is never serialized.
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

// ---- Request Validation (VAL) ----

// ErrValidationFailed reports the first structural violation found in a
// request, named by field.
func ErrValidationFailed(field, reason string) *AppError {
	return New("VAL_001", fmt.Sprintf("%s: %s", field, reason), http.StatusBadRequest)
}

// ---- Authentication & Authorization (AUTH) ----

func ErrAuthenticationFailed() *AppError {
	return New("AUTH_001", "Invalid or expired credential", http.StatusUnauthorized)
}

func ErrAuthorizationDenied() *AppError {
	return New("AUTH_002", "Operation not permitted for this role", http.StatusForbidden)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_003", "Invalid credentials", http.StatusUnauthorized)
}

// ---- Payment Business Logic (PAY) ----

func ErrIneligibleMerchant() *AppError {
	return New("PAY_001", "Merchant account is not eligible to charge", http.StatusForbidden)
}

func ErrCurrencyMismatch(want string) *AppError {
	return New("PAY_002", fmt.Sprintf("Currency must match settlement currency %s", want), http.StatusBadRequest)
}

func ErrAmountBelowMinimum(minMinor int64) *AppError {
	return New("PAY_003", fmt.Sprintf("Amount is below the minimum of %d minor units", minMinor), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmailExists() *AppError {
	return New("PAY_005", "Account with this email already exists", http.StatusConflict)
}

// ---- Gateway (GW) ----

// ErrPaymentFailed is the caller-visible outcome of a gateway rejection.
// The transaction is persisted as FAILED; the message never carries raw
// provider error text.
func ErrPaymentFailed(err error) *AppError {
	return Wrap("GW_001", "Payment was declined by the gateway", http.StatusPaymentRequired, err)
}

// ErrGatewayUnavailable is returned once transient retries are exhausted.
// The pending transaction remains the durable checkpoint; callers must
// reconcile by querying its status, not by assuming failure.
func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_002", "Payment gateway is temporarily unavailable", http.StatusBadGateway, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrPersistenceFailure(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

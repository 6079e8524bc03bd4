package apperror

import (
	"fmt"
	"net/http"
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

// ---- Validation (VAL) ----

// Validation returns a 400 error for bad merchant input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrCredentialsNotConfigured() *AppError {
	return New("AUTH_004", "Configure your Mercado Pago credentials before creating links", http.StatusBadRequest)
}

// ---- External gateway (GW) ----

func ErrGatewayAuth() *AppError {
	return New("GW_001", "Mercado Pago credentials are invalid", http.StatusUnauthorized)
}

func ErrGatewayValidation(message string) *AppError {
	return New("GW_002", fmt.Sprintf("Mercado Pago rejected the request: %s", message), http.StatusBadRequest)
}

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_003", "Could not reach Mercado Pago, try again later", http.StatusBadGateway, err)
}

func ErrPaymentNotFound() *AppError {
	return New("GW_004", "Payment not found at gateway", http.StatusNotFound)
}

// ---- Payment links (LNK) ----

func ErrNotFound(entity string) *AppError {
	return New("LNK_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidTransition(current string) *AppError {
	return New("LNK_002", fmt.Sprintf("Operation not allowed for a link with status: %s", current), http.StatusBadRequest)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

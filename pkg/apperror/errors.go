package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // Transient errors the caller may retry
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

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsRetryable reports whether err is a transient AppError the caller may retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// Error codes by class. WAL_* are terminal ledger errors, SYS_* are
// infrastructure errors. Only concurrent-modification and busy are retryable.
const (
	CodeInvalidArgument        = "WAL_001"
	CodeCurrencyMismatch       = "WAL_002"
	CodeInvalidState           = "WAL_003"
	CodeInsufficientFunds      = "WAL_004"
	CodeNotFound               = "WAL_005"
	CodeAlreadyExists          = "WAL_006"
	CodeSelfTransfer           = "WAL_007"
	CodeConcurrentModification = "WAL_008"
	CodeInternal               = "SYS_001"
	CodeBusy                   = "SYS_002"
)

// ---- Ledger Business Logic (WAL) ----

func ErrInvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest)
}

func ErrCurrencyMismatch(want, got string) *AppError {
	return New(CodeCurrencyMismatch,
		fmt.Sprintf("Currency mismatch: wallet holds %s, operation uses %s", want, got),
		http.StatusUnprocessableEntity)
}

func ErrInvalidState(message string) *AppError {
	return New(CodeInvalidState, message, http.StatusConflict)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient funds in wallet", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyExists(entity string) *AppError {
	return New(CodeAlreadyExists, fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

func ErrSelfTransfer() *AppError {
	return New(CodeSelfTransfer, "Source and target wallet must differ", http.StatusBadRequest)
}

func ErrConcurrentModification(err error) *AppError {
	e := Wrap(CodeConcurrentModification, "Wallet was modified concurrently, retry the operation", http.StatusConflict, err)
	e.Retryable = true
	return e
}

// ---- System & Infrastructure (SYS) ----

func ErrBusy(err error) *AppError {
	e := Wrap(CodeBusy, "Wallet lock acquisition timed out", http.StatusServiceUnavailable, err)
	e.Retryable = true
	return e
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns an invalid-argument error for malformed request input.
func Validation(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest)
}

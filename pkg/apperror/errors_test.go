package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("WAL_001", "Invalid amount", http.StatusBadRequest)
	assert.Equal(t, "[WAL_001] Invalid amount", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] Internal server error: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("db down")
	e := InternalError(inner)
	assert.ErrorIs(t, e, inner)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
		retryable  bool
	}{
		{"invalid argument", ErrInvalidArgument("amount must be positive"), CodeInvalidArgument, http.StatusBadRequest, false},
		{"currency mismatch", ErrCurrencyMismatch("BRL", "USD"), CodeCurrencyMismatch, http.StatusUnprocessableEntity, false},
		{"invalid state", ErrInvalidState("wallet is closed"), CodeInvalidState, http.StatusConflict, false},
		{"insufficient funds", ErrInsufficientFunds(), CodeInsufficientFunds, http.StatusPaymentRequired, false},
		{"not found", ErrNotFound("wallet"), CodeNotFound, http.StatusNotFound, false},
		{"already exists", ErrAlreadyExists("wallet"), CodeAlreadyExists, http.StatusConflict, false},
		{"self transfer", ErrSelfTransfer(), CodeSelfTransfer, http.StatusBadRequest, false},
		{"concurrent modification", ErrConcurrentModification(nil), CodeConcurrentModification, http.StatusConflict, true},
		{"busy", ErrBusy(nil), CodeBusy, http.StatusServiceUnavailable, true},
		{"internal", InternalError(errors.New("x")), CodeInternal, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestHasCode(t *testing.T) {
	err := ErrInsufficientFunds()
	assert.True(t, HasCode(err, CodeInsufficientFunds))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientFunds))

	// Wrapped in a plain error chain
	chained := fmt.Errorf("deposit failed: %w", ErrNotFound("wallet"))
	assert.True(t, HasCode(chained, CodeNotFound))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrentModification(errors.New("serialization failure"))))
	assert.True(t, IsRetryable(ErrBusy(nil)))
	assert.False(t, IsRetryable(ErrInsufficientFunds()))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrNotFound_Message(t *testing.T) {
	assert.Equal(t, "wallet not found", ErrNotFound("wallet").Message)
	assert.Equal(t, "source wallet not found", ErrNotFound("source wallet").Message)
}

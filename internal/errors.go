package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidCalendarDate ErrorCode = "INVALID_CALENDAR_DATE"
	ErrCodeInvalidOutcome      ErrorCode = "INVALID_OUTCOME"
	ErrCodeInvalidTrigger      ErrorCode = "INVALID_TRIGGER"

	ErrCodeDuplicateSubmission ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeAlreadyBound        ErrorCode = "ALREADY_BOUND"
	ErrCodeStaleApproval       ErrorCode = "STALE_APPROVAL"
	ErrCodeSeedConflict        ErrorCode = "SEED_CONFLICT"

	ErrCodeDonorNotFound    ErrorCode = "DONOR_NOT_FOUND"
	ErrCodeApprovalNotFound ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodePaymentNotFound  ErrorCode = "PAYMENT_NOT_FOUND"

	ErrCodeNotVerified ErrorCode = "NOT_VERIFIED"
	ErrCodeAdminOnly   ErrorCode = "ADMIN_ONLY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodePersistence ErrorCode = "PERSISTENCE_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {

			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewUnavailableError marks a failure the caller may retry, typically a rolled
// back transaction.
func NewUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       ErrCodePersistence,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewInvalidCalendarDateError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeInvalidCalendarDate,
		Message:    "invalid calendar date",
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// Business-rule rejections. These are compared with errors.Is and must never be
// mutated; wrap them with fmt.Errorf.
var (
	ErrDuplicateSubmission = NewConflictError("a receipt for this period is already under review or approved", ErrCodeDuplicateSubmission)
	ErrAlreadyBound        = NewConflictError("donor is already bound to another chat", ErrCodeAlreadyBound)
	ErrStaleApproval       = NewConflictError("approval has already been decided", ErrCodeStaleApproval)
	ErrSeedConflict        = NewConflictError("duplicate donor pin in seed data", ErrCodeSeedConflict)

	ErrDonorNotFound    = NewNotFoundError("donor not found", ErrCodeDonorNotFound)
	ErrApprovalNotFound = NewNotFoundError("approval not found", ErrCodeApprovalNotFound)
	ErrPaymentNotFound  = NewNotFoundError("payment period not found", ErrCodePaymentNotFound)

	ErrNotVerified    = NewForbiddenError("donor is not verified", ErrCodeNotVerified)
	ErrAdminOnly      = NewForbiddenError("command is restricted to the administrator", ErrCodeAdminOnly)
	ErrInvalidOutcome = NewValidationError("outcome must be approved or failed", ErrCodeInvalidOutcome)
	ErrInvalidTrigger = NewValidationError("unknown trigger kind", ErrCodeInvalidTrigger)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsAppError finds the outermost AppError in err's chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRejection reports whether err is an expected business-rule conflict that
// should be answered with a denial rather than logged as a failure.
func IsRejection(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeConflict
}

func IsRetryable(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeUnavailable
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

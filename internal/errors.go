package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeInvalidLogin           ErrorCode = "INVALID_LOGIN"
	ErrCodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	ErrCodeCronUnauthorized       ErrorCode = "CRON_UNAUTHORIZED"

	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"
	ErrCodeCSRFFailed   ErrorCode = "CSRF_FAILED"

	ErrCodeClientNotFound       ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeCredentialUnreadable ErrorCode = "CREDENTIAL_UNREADABLE"
)

// AppError is the transport-facing error. Its JSON form follows the
// {"ok": false, "error": "..."} envelope used by every endpoint.
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

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches copies made by WithCause and WithDetails against the sentinel
// they came from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code && e.Message == t.Message
}

// WithCause returns a copy so the shared sentinel values below are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
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

// Messages here are what callers see. Login failures deliberately share one
// message regardless of which check failed.
var (
	ErrInvalidLogin           = NewUnauthorizedError("Invalid login.", ErrCodeInvalidLogin)
	ErrAuthenticationRequired = NewUnauthorizedError("Authentication required.", ErrCodeAuthenticationRequired)
	ErrCronUnauthorized       = NewUnauthorizedError("Unauthorized.", ErrCodeCronUnauthorized)

	ErrAccessDenied = NewForbiddenError("Access denied.", ErrCodeAccessDenied)
	ErrCSRFFailed   = NewForbiddenError("CSRF validation failed.", ErrCodeCSRFFailed)

	ErrClientNotFound       = NewNotFoundError("Client not found.", ErrCodeClientNotFound)
	ErrUserNotFound         = NewNotFoundError("User not found.", ErrCodeUserNotFound)
	ErrCredentialUnreadable = &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeCredentialUnreadable,
		Message:    "Stored credential could not be read.",
		StatusCode: http.StatusInternalServerError,
	}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Response is the envelope written for every failed request.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{OK: false, Error: e.GetDetailedMessage()}
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

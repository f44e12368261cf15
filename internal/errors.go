package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the coarse class of an AppError. It fixes the HTTP status.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeRateLimited:  http.StatusTooManyRequests,
	ErrorTypeInternal:     http.StatusInternalServerError,
}

// ErrorCode is the machine readable reason clients switch on.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"

	ErrCodePersonNotFound     ErrorCode = "PERSON_NOT_FOUND"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
	ErrCodeDepartmentNotFound ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeDepartmentExists   ErrorCode = "DEPARTMENT_EXISTS"
	ErrCodeDepartmentHasHead  ErrorCode = "DEPARTMENT_HAS_HEAD"
	ErrCodeTitleNotFound      ErrorCode = "TITLE_NOT_FOUND"
	ErrCodeTitleExists        ErrorCode = "TITLE_EXISTS"

	ErrCodeTaskNotFound          ErrorCode = "TASK_NOT_FOUND"
	ErrCodeInvalidTaskTransition ErrorCode = "INVALID_TASK_TRANSITION"
	ErrCodeNotTaskAssignee       ErrorCode = "NOT_TASK_ASSIGNEE"
	ErrCodeNotTaskCreator        ErrorCode = "NOT_TASK_CREATOR"
	ErrCodeMeetingNotFound       ErrorCode = "MEETING_NOT_FOUND"
	ErrCodeInvalidMeetingWindow  ErrorCode = "INVALID_MEETING_WINDOW"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeAdminProtected     ErrorCode = "ADMIN_PROTECTED"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// AppError is the error every service returns across the HTTP boundary.
// Sentinels below are shared; derive copies with the With* methods.
type AppError struct {
	Type       ErrorType
	Code       ErrorCode
	Message    string
	Details    any
	StatusCode int
	Cause      error
}

func newAppError(t ErrorType, code ErrorCode, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: statusByType[t]}
}

func (e *AppError) Error() string {
	if fe, ok := e.Details.(ValidationErrors); ok && len(fe.Errors) > 0 {
		return fe.Errors[0].Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is compares Type and Code, so copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code && e.Type == t.Type
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, message)
}

// NewValidationFieldError rejects a single field; code becomes both the
// error code and the field code.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, "validation failed").WithDetails(ValidationErrors{
		Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}},
	})
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, code, message)
}

func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, ErrCodeInternal, message).WithCause(cause)
}

var (
	ErrPersonNotFound     = newAppError(ErrorTypeNotFound, ErrCodePersonNotFound, "person not found")
	ErrEmailTaken         = newAppError(ErrorTypeConflict, ErrCodeEmailTaken, "email is already in use")
	ErrDepartmentNotFound = newAppError(ErrorTypeNotFound, ErrCodeDepartmentNotFound, "department not found")
	ErrDepartmentExists   = newAppError(ErrorTypeConflict, ErrCodeDepartmentExists, "department already exists")
	ErrDepartmentHasHead  = newAppError(ErrorTypeConflict, ErrCodeDepartmentHasHead, "department already has a head")
	ErrTitleNotFound      = newAppError(ErrorTypeNotFound, ErrCodeTitleNotFound, "title not found")
	ErrTitleExists        = newAppError(ErrorTypeConflict, ErrCodeTitleExists, "title already exists")

	ErrTaskNotFound          = newAppError(ErrorTypeNotFound, ErrCodeTaskNotFound, "task not found")
	ErrInvalidTaskTransition = newAppError(ErrorTypeConflict, ErrCodeInvalidTaskTransition, "task status cannot be changed this way")
	ErrNotTaskAssignee       = newAppError(ErrorTypeForbidden, ErrCodeNotTaskAssignee, "only the assignee can change the task status")
	ErrNotTaskCreator        = newAppError(ErrorTypeForbidden, ErrCodeNotTaskCreator, "only the creator can close the task")
	ErrMeetingNotFound       = newAppError(ErrorTypeNotFound, ErrCodeMeetingNotFound, "meeting not found")

	ErrInvalidCredentials = newAppError(ErrorTypeUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	ErrInvalidToken       = newAppError(ErrorTypeUnauthorized, ErrCodeInvalidToken, "invalid token")
	ErrTokenExpired       = newAppError(ErrorTypeUnauthorized, ErrCodeTokenExpired, "token has expired")
	ErrUserNotFound       = newAppError(ErrorTypeNotFound, ErrCodeUserNotFound, "user not found")
	ErrAdminProtected     = newAppError(ErrorTypeValidation, ErrCodeAdminProtected, "admin account cannot be managed via API")
	ErrMissingPrincipal   = newAppError(ErrorTypeUnauthorized, ErrCodeInvalidToken, "authentication required")
	ErrRateLimited        = newAppError(ErrorTypeRateLimited, ErrCodeRateLimited, "too many requests")
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Response is the JSON envelope of every error answer.
type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, any) {
	status := e.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType `json:"type"`
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
		Details any       `json:"details,omitempty"`
	}{e.Type, e.Code, e.Message, e.Details})
}

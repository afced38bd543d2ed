package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrUpload            = errors.New("upload failed")
	ErrUnreachable       = errors.New("asset unreachable")
	ErrExportItem        = errors.New("export item failed")
	ErrUpstream          = errors.New("memory api request failed")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause exposes the wrapped error, which Unwrap hides behind the base.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

// NewBusy reports an action rejected because another one is still running.
func NewBusy(details string) *AppError {
	return NewAppError(ErrConflict, "Operation in progress", details, nil)
}

func NewInvalidTransition(from, action string) *AppError {
	return NewAppError(ErrConflict, "Action not allowed in current state",
		fmt.Sprintf("cannot %s while %s", action, from), nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewDeviceUnavailable(details string, err error) *AppError {
	return NewAppError(ErrDeviceUnavailable, "Camera or microphone is not available", details, err)
}

// NewUploadError keeps the remote detail as the message so it can be shown as is.
func NewUploadError(status int, detail string, err error) *AppError {
	if detail == "" {
		detail = "upload request failed"
	}
	return NewAppError(ErrUpload, detail, fmt.Sprintf("remote status %d", status), err)
}

func NewUpstream(status int, detail string, err error) *AppError {
	if detail == "" {
		detail = "API request failed"
	}
	return NewAppError(ErrUpstream, detail, fmt.Sprintf("remote status %d", status), err)
}

func NewUnreachable(url string, err error) *AppError {
	return NewAppError(ErrUnreachable, "Stored asset is unreachable", url, err)
}

func NewExportItem(url string, err error) *AppError {
	return NewAppError(ErrExportItem, "Failed to add asset to archive", url, err)
}

func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpload), errors.Is(err, ErrUnreachable), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ToJSON renders the error for clients. Details of internal errors stay in the logs.
func (e *AppError) ToJSON() gin.H {
	h := gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
	if e.Details != "" && e.BaseError != ErrInternal {
		h["details"] = e.Details
	}
	return h
}

package automl

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a service failure
type ErrorType string

const (
	// ErrTypeService indicates the service answered with a non-success status
	ErrTypeService ErrorType = "service"

	// ErrTypeNetwork indicates the request never got a response
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeDecode indicates the response body could not be decoded
	ErrTypeDecode ErrorType = "decode"

	// ErrTypeConfiguration indicates invalid client configuration
	ErrTypeConfiguration ErrorType = "configuration"

	// ErrTypeInternal indicates a client-side failure building the request
	ErrTypeInternal ErrorType = "internal"
)

// RemoteError is the normalized failure of a service call
type RemoteError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Action names the workflow action that failed
	Action string `json:"action,omitempty"`

	// Detail is the human-readable message, taken from the response body when present
	Detail string `json:"detail"`

	// StatusCode for HTTP-level failures
	StatusCode int `json:"status_code,omitempty"`

	// FromService is set when Detail was taken from the service's error body
	FromService bool `json:"from_service"`

	// RequestID is the X-Request-ID sent with the request
	RequestID string `json:"request_id,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`

	// Retryable indicates if the operation could succeed when repeated
	Retryable bool `json:"retryable"`
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	var parts []string

	if e.Action != "" {
		parts = append(parts, fmt.Sprintf("action=%s", e.Action))
	}

	parts = append(parts, fmt.Sprintf("type=%s", e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Detail)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *RemoteError) Is(target error) bool {
	if re, ok := target.(*RemoteError); ok {
		return e.Type == re.Type
	}
	return false
}

// ConfigurationError represents an invalid client setting
type ConfigurationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("automl configuration error, field '%s': %s", e.Field, e.Message)
}

// NewRemoteError creates a remote error
func NewRemoteError(errType ErrorType, action, detail string) *RemoteError {
	return &RemoteError{
		Type:      errType,
		Action:    action,
		Detail:    detail,
		Retryable: isRetryableError(errType),
	}
}

// NewRemoteErrorWithCause creates a remote error with an underlying cause.
// Deadline and cancellation causes are reclassified as timeouts.
func NewRemoteErrorWithCause(errType ErrorType, action, detail string, cause error) *RemoteError {
	if errors.Is(cause, context.DeadlineExceeded) {
		errType = ErrTypeTimeout
	}
	return &RemoteError{
		Type:      errType,
		Action:    action,
		Detail:    detail,
		Cause:     cause,
		Retryable: isRetryableError(errType),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

func isRetryableError(errType ErrorType) bool {
	switch errType {
	case ErrTypeNetwork, ErrTypeTimeout:
		return true
	default:
		return false
	}
}

// AsRemoteError extracts a RemoteError from err's chain
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsRemoteError checks if an error is a remote error
func IsRemoteError(err error) bool {
	_, ok := AsRemoteError(err)
	return ok
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if re, ok := AsRemoteError(err); ok {
		return re.Retryable
	}
	return false
}

// IsTimeoutError checks if an error is a timeout
func IsTimeoutError(err error) bool {
	if re, ok := AsRemoteError(err); ok {
		return re.Type == ErrTypeTimeout
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Detail returns the detail of a remote error, or "" for any other error
func Detail(err error) string {
	if re, ok := AsRemoteError(err); ok {
		return re.Detail
	}
	return ""
}

// ServiceDetail returns the detail message the service itself sent, or ""
// when the failure carried none (transport errors, bodies without a detail)
func ServiceDetail(err error) string {
	if re, ok := AsRemoteError(err); ok && re.FromService {
		return re.Detail
	}
	return ""
}

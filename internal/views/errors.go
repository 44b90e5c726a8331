package views

import (
	"errors"
	"fmt"
)

// MalformedResponseError reports an internally inconsistent payload handed to a transform
type MalformedResponseError struct {
	// Transform names the transform that rejected the payload
	Transform string `json:"transform"`

	// Reason describes what was inconsistent
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s", e.Transform, e.Reason)
}

func malformed(transform, format string, args ...interface{}) *MalformedResponseError {
	return &MalformedResponseError{Transform: transform, Reason: fmt.Sprintf(format, args...)}
}

// IsMalformed checks whether err is, or wraps, a MalformedResponseError
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

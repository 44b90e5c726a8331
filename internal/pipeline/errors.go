package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Precondition reasons, matched with errors.Is against a *PreconditionError
var (
	ErrNoDataset        = errors.New("no dataset uploaded")
	ErrNoTargetSelected = errors.New("no target column selected")
	ErrNoModelTrained   = errors.New("no model trained")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrInvalidPlotKind  = errors.New("invalid plot kind")
	ErrInvalidView      = errors.New("invalid view")
)

// PreconditionError reports an action invoked before its required state exists.
// It is raised before any request is sent.
type PreconditionError struct {
	// Action is the action that was refused
	Action Action `json:"action"`

	// Reason is one of the Err* sentinels above
	Reason error `json:"-"`

	// Column is the offending column name, if any
	Column string `json:"column,omitempty"`

	// Suggestion is the closest known column to Column
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Action, e.Reason)
	if e.Column != "" {
		msg += fmt.Sprintf(" %q", e.Column)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Unwrap returns the precondition reason
func (e *PreconditionError) Unwrap() error {
	return e.Reason
}

// Notice is the user-facing notification text
func (e *PreconditionError) Notice() string {
	switch {
	case errors.Is(e.Reason, ErrNoTargetSelected) && e.Column == "":
		return "Select a target column first"
	case errors.Is(e.Reason, ErrNoTargetSelected), errors.Is(e.Reason, ErrUnknownColumn):
		notice := fmt.Sprintf("Unknown column %q", e.Column)
		if e.Suggestion != "" {
			notice += fmt.Sprintf(", did you mean %q?", e.Suggestion)
		}
		return notice
	case errors.Is(e.Reason, ErrNoModelTrained):
		return "Train a model first"
	case errors.Is(e.Reason, ErrNoDataset):
		return "Upload a dataset first"
	case errors.Is(e.Reason, ErrInvalidPlotKind):
		return "Plot type must be distribution, box or scatter"
	default:
		return "Action not available yet"
	}
}

// UnsupportedFormatError reports a dataset file with an unrecognized extension
type UnsupportedFormatError struct {
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
}

// Error implements the error interface
func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported dataset format for %q: no extension", e.Filename)
	}
	return fmt.Sprintf("unsupported dataset format %q for %q", e.Extension, e.Filename)
}

// SupportedExtensions lists the dataset file types the service accepts
var SupportedExtensions = []string{".csv", ".xlsx"}

// CheckFormat returns an *UnsupportedFormatError unless name ends in a supported extension
func CheckFormat(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return nil
		}
	}
	return &UnsupportedFormatError{Filename: name, Extension: ext}
}

// IsPrecondition checks if err is a precondition failure
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsUnsupportedFormat checks if err is an unsupported format failure
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}

// Suggest returns the column closest to name by edit distance, or "" when none is close.
// Matching is case-insensitive; ties keep schema order.
func Suggest(name string, columns []string) string {
	if name == "" {
		return ""
	}
	needle := strings.ToLower(name)
	limit := max(2, len(needle)/3)

	best, bestDist := "", -1
	for _, c := range columns {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

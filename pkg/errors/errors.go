// Package errors provides structured error types for dnnbrain file adapters.
// Errors include a code, a category, context, causes, and actionable suggestions.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryFormat   Category = "format"   // Malformed or incomplete file structure
	CategoryIO       Category = "io"       // Path not found, permission denied, read/write failures
	CategoryType     Category = "type"     // Unsupported array element types
	CategoryConfig   Category = "config"   // Configuration loading/parsing errors
	CategoryInternal Category = "internal" // Internal/unexpected errors
)

// DnnError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type DnnError struct {
	// Code is a unique identifier for this error type (e.g., "STIM_MISSING_HEADER")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *DnnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *DnnError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two DnnErrors match if they have the same Code.
func (e *DnnError) Is(target error) bool {
	if t, ok := target.(*DnnError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new DnnError with the given code, category, and message.
func New(code string, category Category, message string) *DnnError {
	return &DnnError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *DnnError) WithContext(key, value string) *DnnError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *DnnError) WithCause(cause error) *DnnError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *DnnError) WithSuggestion(suggestion string) *DnnError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *DnnError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *DnnError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns a formatted string of all context entries, sorted by key.
func (e *DnnError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a DnnError.
func Wrap(err error, code string, category Category, message string) *DnnError {
	return New(code, category, message).WithCause(err)
}

// AsDnnError finds the first DnnError in err's chain.
func AsDnnError(err error) (*DnnError, bool) {
	if err == nil {
		return nil, false
	}
	var de *DnnError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCategory checks if an error is a DnnError with the given category.
func IsCategory(err error, category Category) bool {
	if de, ok := AsDnnError(err); ok {
		return de.Category == category
	}
	return false
}

// IsCode checks if an error is a DnnError with the given code.
func IsCode(err error, code string) bool {
	if de, ok := AsDnnError(err); ok {
		return de.Code == code
	}
	return false
}

// IsFormat reports whether err is a format error (malformed or incomplete structure).
func IsFormat(err error) bool { return IsCategory(err, CategoryFormat) }

// IsIO reports whether err is an I/O error surfaced from the storage layer.
func IsIO(err error) bool { return IsCategory(err, CategoryIO) }

// IsType reports whether err is an unsupported-type error.
func IsType(err error) bool { return IsCategory(err, CategoryType) }

// Package errors provides the structured error type shared by the document
// loader, configuration and file rendering layers.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes used across the module.
const (
	CodeRenderWrite     = "RENDER_WRITE"
	CodeDocumentRead    = "DOCUMENT_READ"
	CodeDocumentParse   = "DOCUMENT_PARSE"
	CodeDocumentInvalid = "DOCUMENT_INVALID"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeConfigLoad      = "CONFIG_LOAD"
	CodeServerListen    = "SERVER_LISTEN"
	CodeWatchSetup      = "WATCH_SETUP"
)

// MimicError is a structured error type with context.
type MimicError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	Path    string
}

// Error implements the error interface.
func (e *MimicError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *MimicError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a MimicError with the same type and code.
func (e *MimicError) Is(target error) bool {
	var t *MimicError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *MimicError) WithContext(key string, value interface{}) *MimicError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file the error relates to.
func (e *MimicError) WithPath(path string) *MimicError {
	e.Path = path

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *MimicError {
	return &MimicError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is a MimicError of the given type.
func IsType(err error, t ErrorType) bool {
	var me *MimicError
	if errors.As(err, &me) {
		return me.Type == t
	}

	return false
}

// Logger is the subset of logging.Logger the handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler logs errors that are reported but not propagated.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its structured fields. Validation problems are
// logged as warnings, everything else as errors.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var me *MimicError
	if !errors.As(err, &me) {
		h.logger.Error(ctx, err, "Unexpected error")
		return
	}

	fields := []interface{}{"type", string(me.Type), "code", me.Code}
	if me.Path != "" {
		fields = append(fields, "path", me.Path)
	}
	for k, v := range me.Context {
		fields = append(fields, k, v)
	}

	if me.Type == ErrorTypeValidation {
		h.logger.Warn(ctx, err, me.Message, fields...)
		return
	}
	h.logger.Error(ctx, err, me.Message, fields...)
}

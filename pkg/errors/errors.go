// Package errors provides custom error types for the integrations repository.
// Every error carries enough type information for callers to classify it
// (not-found, malformed content, invalid input, backend failure) and to map
// it onto an HTTP status code without inspecting message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers only need one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the integrations system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformed indicates that stored content could not be parsed
	ErrMalformed = errors.New("malformed content")

	// ErrUnsupported indicates an operation the backend cannot perform
	ErrUnsupported = errors.New("unsupported operation")
)

// MalformedMessage is the fixed message carried by every content parse failure.
const MalformedMessage = "unable to parse file as JSON or NDJSON"

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StatusCode implements StatusCoder.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StatusCode implements StatusCoder.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// DeepValidationError reports a structurally valid integration whose declared
// dependencies (schemas, assets) do not resolve to anything deployable.
type DeepValidationError struct {
	Integration string
	Message     string
	Err         error
}

// Error implements the error interface
func (e *DeepValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integration %s is not deployable: %s: %v", e.Integration, e.Message, e.Err)
	}
	return fmt.Sprintf("integration %s is not deployable: %s", e.Integration, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DeepValidationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DeepValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewDeepValidationError creates a new DeepValidationError
func NewDeepValidationError(integration, message string, err error) *DeepValidationError {
	return &DeepValidationError{Integration: integration, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "ndjson", "yaml"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// UnsupportedError reports an operation a backend does not implement.
type UnsupportedError struct {
	Backend   string
	Operation string
}

// Error implements the error interface
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported by the %s adaptor", e.Operation, e.Backend)
}

// Is implements errors.Is support
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewUnsupportedError creates a new UnsupportedError
func NewUnsupportedError(backend, operation string) *UnsupportedError {
	return &UnsupportedError{Backend: backend, Operation: operation}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "stat", "readdir"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// StoreError represents a failure of the object store backend that is not
// a plain not-found.
type StoreError struct {
	Operation string // "find", "get", "create", "bulk_create", "delete"
	Type      string
	ID        string
	Status    int
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("object store %s of %s/%s failed: %v", e.Operation, e.Type, e.ID, e.Err)
	}
	return fmt.Sprintf("object store %s of %s failed: %v", e.Operation, e.Type, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// StatusCode implements StatusCoder.
func (e *StoreError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, typ, id string, err error) *StoreError {
	return &StoreError{Operation: operation, Type: typ, ID: id, Err: err}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "save", "delete"
	Resource  string // "instance"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusCode classifies err into the status code surfaced by the HTTP layer:
// 404 for not-found, 400 for invalid input, 500 for everything else.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformed checks if an error reports unparseable content
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// IsUnsupported checks if an error reports an unsupported adaptor operation
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

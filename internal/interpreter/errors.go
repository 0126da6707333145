package interpreter

import (
	"errors"
	"fmt"
)

// Code represents a structured error code for categorizing interpreter errors
type Code string

const (
	CodeInvalidConfig  Code = "INVALID_CONFIG"
	CodeNotImplemented Code = "NOT_IMPLEMENTED"
	CodeInternal       Code = "INTERNAL"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Sentinel errors for use with errors.Is
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrNotImplemented = errors.New("not implemented")
	ErrInternal       = errors.New("internal error")
)

// ConfigError is raised while building matchers, features or the registry.
// It represents a programming mistake discoverable before serving messages.
type ConfigError struct {
	Component string
	Reason    string
}

func configErrorf(component, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", CodeInvalidConfig, e.Component, e.Reason)
}

// Code returns the error code
func (e *ConfigError) Code() Code { return CodeInvalidConfig }

// Is makes errors.Is(err, ErrInvalidConfig) succeed
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// NotImplementedError is returned by Invoke when a subcategory was matched
// but the feature has no action mapped for it.
type NotImplementedError struct {
	Category    CommandCategory
	Subcategory CommandSubcategory
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("[%s] no mapped action for %s in %s", CodeNotImplemented, e.Subcategory, e.Category)
}

// Code returns the error code
func (e *NotImplementedError) Code() Code { return CodeNotImplemented }

// Is makes errors.Is(err, ErrNotImplemented) succeed
func (e *NotImplementedError) Is(target error) bool { return target == ErrNotImplemented }

// InternalError wraps an unexpected failure together with the stack trace
// captured where it was recovered.
type InternalError struct {
	Cause error
	Stack []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("[%s] %v", CodeInternal, e.Cause)
}

// Code returns the error code
func (e *InternalError) Code() Code { return CodeInternal }

// Trace returns the captured stack trace
func (e *InternalError) Trace() string { return string(e.Stack) }

// Unwrap returns the underlying cause
func (e *InternalError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrInternal) succeed
func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// panicError converts a recovered value into an error
func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

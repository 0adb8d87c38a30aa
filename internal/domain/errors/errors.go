// Package errors provides domain-specific errors for the answerstream pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrUnsupportedModel   = errors.New("unsupported model")
	ErrMissingCapability  = errors.New("missing required capability")
	ErrInvalidState       = errors.New("invalid aggregator state")
	ErrDelivery           = errors.New("message delivery failed")
	ErrPublisherRequired  = errors.New("publisher required")
	ErrAdapterUnavailable = errors.New("provider adapter unavailable")
	ErrEmptyQuestion      = errors.New("question is empty")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeProvider      ErrorCode = "PROVIDER"
	CodeDelivery      ErrorCode = "DELIVERY"
	CodeState         ErrorCode = "STATE"
	CodeConfiguration ErrorCode = "CONFIG"
)

// AnswerstreamError wraps errors with additional context for debugging and handling.
type AnswerstreamError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *AnswerstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *AnswerstreamError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AnswerstreamError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *AnswerstreamError {
	return &AnswerstreamError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
func WithContext(err *AnswerstreamError, key string, value interface{}) *AnswerstreamError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// UnsupportedModelError reports a model name that is absent from every
// provider table.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("%s is not a currently supported model", e.Model)
}

// Is matches ErrUnsupportedModel.
func (e *UnsupportedModelError) Is(target error) bool {
	return target == ErrUnsupportedModel
}

// MissingCapabilityError reports a construction capability (callback, API key)
// that a provider requires but the caller did not supply.
type MissingCapabilityError struct {
	Provider   string
	Capability string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("%s is required for %s models", e.Capability, e.Provider)
}

// Is matches ErrMissingCapability.
func (e *MissingCapabilityError) Is(target error) bool {
	return target == ErrMissingCapability
}

// InvalidStateError reports an aggregator operation attempted in a phase that
// does not allow it.
type InvalidStateError struct {
	Operation string
	Phase     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in phase %s", e.Operation, e.Phase)
}

// Is matches ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// DeliveryError wraps a transport failure raised while publishing an envelope.
type DeliveryError struct {
	Cause error
}

func (e *DeliveryError) Error() string {
	if e.Cause == nil {
		return ErrDelivery.Error()
	}
	return fmt.Sprintf("%s: %v", ErrDelivery.Error(), e.Cause)
}

// Unwrap returns the transport error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// Is matches ErrDelivery.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new validation AnswerstreamError scoped to a domain.
func New(domain, message string) *AnswerstreamError {
	return &AnswerstreamError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("[%s] %s", domain, message),
		Context: make(map[string]interface{}),
	}
}

// Error types and handling
package llm

import (
	"fmt"
	"net/http"
)

// Error codes used across providers
const (
	ErrCodeInvalidHistory        = "invalid_history"
	ErrCodeUnreachableStep       = "unreachable_step"
	ErrCodeStreamProducerFailure = "stream_producer_failure"
	ErrCodeStreamIncomplete      = "stream_incomplete"
	ErrCodeMissingAPIKey         = "missing_api_key"
	ErrCodeMissingModel          = "missing_model"
	ErrCodeUnsupportedProvider   = "unsupported_provider"
	ErrCodeAuthentication        = "authentication_error"
	ErrCodeRateLimit             = "rate_limit_error"
	ErrCodeModelNotFound         = "model_not_found"
	ErrCodeInvalidRequest        = "invalid_request"
	ErrCodeAPI                   = "api_error"
)

// Error types
const (
	ErrTypeValidation     = "validation_error"
	ErrTypeInternal       = "internal_error"
	ErrTypeStream         = "stream_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypeAPI            = "api_error"
	ErrTypeRateLimit      = "rate_limit_error"
)

// Error represents a standardized LLM error
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`

	cause error
}

// Sentinels for errors.Is comparisons. Only the Code is compared.
var (
	ErrInvalidHistory        = &Error{Code: ErrCodeInvalidHistory, Type: ErrTypeValidation}
	ErrUnreachableStep       = &Error{Code: ErrCodeUnreachableStep, Type: ErrTypeInternal}
	ErrStreamProducerFailure = &Error{Code: ErrCodeStreamProducerFailure, Type: ErrTypeStream}
	ErrStreamIncomplete      = &Error{
		Code:    ErrCodeStreamIncomplete,
		Message: "stream closed before a done event",
		Type:    ErrTypeStream,
	}
)

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// NewInvalidHistoryError reports a conversation that cannot be scanned for roles
func NewInvalidHistoryError(index int, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidHistory,
		Message: fmt.Sprintf("invalid history: message %d: %s", index, reason),
		Type:    ErrTypeValidation,
	}
}

// NewUnreachableStepError reports a step the sequencer has no script for
func NewUnreachableStepError(step fmt.Stringer) *Error {
	return &Error{
		Code:    ErrCodeUnreachableStep,
		Message: fmt.Sprintf("unreachable step: %s", step),
		Type:    ErrTypeInternal,
	}
}

// NewStreamProducerError wraps a failure raised while producing stream events
func NewStreamProducerError(cause error) *Error {
	return &Error{
		Code:    ErrCodeStreamProducerFailure,
		Message: fmt.Sprintf("stream producer failed: %v", cause),
		Type:    ErrTypeStream,
		cause:   cause,
	}
}

// NewProviderError wraps an error returned by a provider SDK
func NewProviderError(code, errType string, statusCode int, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    cause.Error(),
		Type:       errType,
		StatusCode: statusCode,
		cause:      cause,
	}
}

// ErrorFromStatus classifies a provider failure by its HTTP status code
func ErrorFromStatus(statusCode int, cause error) *Error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewProviderError(ErrCodeAuthentication, ErrTypeAuthentication, statusCode, cause)
	case statusCode == http.StatusTooManyRequests:
		return NewProviderError(ErrCodeRateLimit, ErrTypeRateLimit, statusCode, cause)
	case statusCode == http.StatusNotFound:
		return NewProviderError(ErrCodeModelNotFound, ErrTypeValidation, statusCode, cause)
	case statusCode >= 400 && statusCode < 500:
		return NewProviderError(ErrCodeInvalidRequest, ErrTypeValidation, statusCode, cause)
	default:
		return NewProviderError(ErrCodeAPI, ErrTypeAPI, statusCode, cause)
	}
}

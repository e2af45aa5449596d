package tts

import (
	"errors"
	"fmt"
	"strings"
)

// Common TTS errors
var (
	// ErrEmptyTranscript indicates there is nothing to synthesize
	ErrEmptyTranscript = errors.New("transcript cannot be empty")

	// ErrInvalidVoice indicates the voice selector could not be built
	ErrInvalidVoice = errors.New("invalid voice configuration")

	// ErrUnsupportedFormat indicates an unknown output format name
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrInvalidConfig indicates configuration values are out of range
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrReadTimeout indicates the response body stalled longer than the configured timeout
	ErrReadTimeout = errors.New("timed out waiting for audio data")

	// ErrCanceled indicates an operation was canceled by the caller
	ErrCanceled = errors.New("operation canceled")
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Transport errors
	ErrorCodeTransport        ErrorCode = "TRANSPORT"
	ErrorCodeRemote           ErrorCode = "REMOTE"
	ErrorCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// System errors
	ErrorCodeTimeout  ErrorCode = "TIMEOUT"
	ErrorCodeCanceled ErrorCode = "CANCELED"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the error should abort the send call without retry
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeRemote,
		ErrorCodeRetriesExhausted,
		ErrorCodeInvalidInput,
		ErrorCodeCanceled:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeTransport,
		ErrorCodeTimeout:
		return true
	default:
		return false
	}
}

// TransportError is a connection-level failure: refused, reset, DNS, or a
// timeout before or while the response streams in.
type TransportError struct {
	*TTSError
}

// NewTransportError wraps a connection-level cause.
func NewTransportError(op string, cause error) *TransportError {
	code := ErrorCodeTransport
	if errors.Is(cause, ErrReadTimeout) {
		code = ErrorCodeTimeout
	}
	return &TransportError{NewTTSError(code, op, cause)}
}

// Unwrap exposes the embedded TTSError so errors.As can reach it.
func (e *TransportError) Unwrap() error {
	return e.TTSError
}

// RemoteError is a non-2xx answer from the service. Body holds the
// response text as the service sent it.
type RemoteError struct {
	*TTSError
	StatusCode int
	Body       string
}

// NewRemoteError builds a RemoteError for the given status and body.
func NewRemoteError(statusCode int, body string) *RemoteError {
	err := NewTTSError(ErrorCodeRemote, "failed to generate audio", nil).
		WithContext("status", statusCode)
	return &RemoteError{TTSError: err, StatusCode: statusCode, Body: body}
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (status %d): %s", e.Code, e.Message, e.StatusCode, strings.TrimSpace(e.Body))
}

// Unwrap exposes the embedded TTSError so errors.As can reach it.
func (e *RemoteError) Unwrap() error {
	return e.TTSError
}

// ExhaustedRetriesError is returned after every attempt failed with a
// connection-level error. Cause is the last attempt's error.
type ExhaustedRetriesError struct {
	*TTSError
	Attempts int
}

// NewExhaustedRetriesError annotates the last cause with the attempt count.
func NewExhaustedRetriesError(attempts int, cause error) *ExhaustedRetriesError {
	err := NewTTSError(ErrorCodeRetriesExhausted, "error generating audio", cause).
		WithContext("attempts", attempts)
	return &ExhaustedRetriesError{TTSError: err, Attempts: attempts}
}

// Error implements the error interface
func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts: %v", e.Code, e.Message, e.Attempts, e.Cause)
}

// Unwrap exposes the embedded TTSError so errors.As can reach it.
func (e *ExhaustedRetriesError) Unwrap() error {
	return e.TTSError
}

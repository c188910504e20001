package tts

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Common pipeline errors
var (
	// ErrEmptyText indicates there was nothing to speak after normalization
	ErrEmptyText = errors.New("no text to speak")

	// ErrNoSession indicates pause/resume was requested with nothing playing
	ErrNoSession = errors.New("no active speech session")

	// ErrCancelled marks work abandoned because its session was superseded or stopped.
	// It is never surfaced through the event stream.
	ErrCancelled = errors.New("speech session cancelled")

	// ErrClosed indicates the pipeline has been shut down
	ErrClosed = errors.New("pipeline is closed")

	// ErrInvalidMaxChars indicates a non-positive chunk size
	ErrInvalidMaxChars = errors.New("max chars must be positive")
)

// ChunkSynthesisError records a backend failure or timeout for one chunk.
type ChunkSynthesisError struct {
	Index   int
	Timeout bool
	Cause   error
}

func (e *ChunkSynthesisError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("chunk %d: synthesis timed out: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("chunk %d: synthesis failed: %v", e.Index, e.Cause)
}

func (e *ChunkSynthesisError) Unwrap() error { return e.Cause }

// BackendUnavailableError is reported once chunk failures pile up within a
// session, which usually means the backend is misconfigured.
type BackendUnavailableError struct {
	Engine   ttypes.EngineType
	Failures int
	Cause    error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("%s backend unavailable after %d failed chunks: %v", e.Engine, e.Failures, e.Cause)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Cause }

// PlaybackError wraps a playback backend failure.
type PlaybackError struct {
	Op       string
	Location string
	Cause    error
}

func (e *PlaybackError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("playback %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("playback %s %s: %v", e.Op, e.Location, e.Cause)
}

func (e *PlaybackError) Unwrap() error { return e.Cause }

// TTSError represents a setup-time error with additional context
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
	// Engine errors
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	// Audio errors
	ErrorCodeAudioDevice ErrorCode = "AUDIO_DEVICE"
	ErrorCodeAudioFormat ErrorCode = "AUDIO_FORMAT"

	// Cache errors
	ErrorCodeCacheCorrupted ErrorCode = "CACHE_CORRUPTED"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorCodeInvalidVoice ErrorCode = "INVALID_VOICE"

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

// IsFatal returns true if the error should stop the application
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeEngineUnavailable,
		ErrorCodeAudioDevice:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeTimeout,
		ErrorCodeEngineTimeout:
		return true
	default:
		return false
	}
}

// reason renders an error for the event stream.
func reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

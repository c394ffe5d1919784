// Package errors provides typed errors for gitmoto.
//
// Discovery distinguishes three classes of failure. A SessionError is fatal to
// one scan (the backend could not be reached at all). A BackendError is
// attributed to a single directory and never ends a scan. GitHubError and
// ConfigError cover the hosted API and startup configuration. All types
// support errors.Is and errors.As from both the standard library and
// cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// BackendError is a failure of one backend operation on one path.
// The traversal engine turns these into warnings.
type BackendError struct {
	Backend   string // "local", "ssh", "github"
	Operation string // e.g., "ListSubdirectories"
	Path      string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Backend, e.Operation, e.Path, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Backend, e.Operation, msg)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a BackendError for path with an underlying cause.
func NewBackendError(backend, operation, path string, cause error) *BackendError {
	return &BackendError{Backend: backend, Operation: operation, Path: path, Cause: cause}
}

// SessionError means a backend session could not be established.
type SessionError struct {
	Backend     string
	Destination string // host, login or root the session was opened for
	Message     string
	Cause       error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Destination != "" {
		return fmt.Sprintf("%s session to %s failed: %s", e.Backend, e.Destination, e.Message)
	}
	return fmt.Sprintf("%s session failed: %s", e.Backend, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// NewSessionError creates a new SessionError.
func NewSessionError(backend, destination, message string) *SessionError {
	return &SessionError{Backend: backend, Destination: destination, Message: message}
}

// NewSessionErrorWithCause creates a new SessionError with an underlying cause.
func NewSessionErrorWithCause(backend, destination, message string, cause error) *SessionError {
	return &SessionError{Backend: backend, Destination: destination, Message: message, Cause: cause}
}

// GitHubError represents GitHub API errors.
type GitHubError struct {
	Operation  string // e.g., "ListByUser", "GetRepository"
	StatusCode int    // HTTP status code if applicable
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *GitHubError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github %s failed (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitHubError) Unwrap() error {
	return e.Cause
}

// NewGitHubError creates a new GitHubError.
func NewGitHubError(operation, message string) *GitHubError {
	return &GitHubError{Operation: operation, Message: message}
}

// NewGitHubErrorWithStatus creates a new GitHubError with HTTP status code.
func NewGitHubErrorWithStatus(operation string, statusCode int, message string) *GitHubError {
	return &GitHubError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// NewGitHubErrorWithCause creates a new GitHubError with an underlying cause.
func NewGitHubErrorWithCause(operation, message string, cause error) *GitHubError {
	return &GitHubError{
		Operation: operation,
		Message:   message,
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// IsRetryable checks if an error or any error in its chain is retryable.
// Only GitHub errors carry a retry hint; session and backend errors never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ghErr *GitHubError
	if errors.As(err, &ghErr) {
		return ghErr.Retryable
	}

	return false
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsBackendError checks if an error or any error in its chain is a BackendError.
func IsBackendError(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

// IsSessionError checks if an error or any error in its chain is a SessionError.
func IsSessionError(err error) bool {
	var sessionErr *SessionError
	return errors.As(err, &sessionErr)
}

// IsGitHubError checks if an error or any error in its chain is a GitHubError.
func IsGitHubError(err error) bool {
	var ghErr *GitHubError
	return errors.As(err, &ghErr)
}

// isRetryableHTTPStatus returns true for HTTP status codes that are typically retryable.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use gmerrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As
)

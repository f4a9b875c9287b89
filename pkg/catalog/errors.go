package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrNotFound is returned when a single item lookup misses.
	ErrNotFound = errors.New("catalog item not found")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnknown is anything else, e.g. an unexpected 3xx.
	ErrorClassUnknown ErrorClass = "unknown"
)

// TransportError is a failure to reach the upstream or read its response.
type TransportError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog transport error on %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamStatusError is a non-2xx response from the upstream.
type UpstreamStatusError struct {
	Endpoint   string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
}

// Error implements the error interface.
func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("catalog upstream %s error (status %d) on %s: %s",
		e.ErrorClass, e.StatusCode, e.Endpoint, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *UpstreamStatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// classifyStatus maps an HTTP status code to an ErrorClass.
func classifyStatus(code int) ErrorClass {
	switch {
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnknown
	}
}

// classifyError categorizes an error for metrics and logs.
func classifyError(err error) ErrorClass {
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.ErrorClass
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return ErrorClassNetwork
	}

	return ErrorClassUnknown
}

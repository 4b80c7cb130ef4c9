package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations
var (
	// ErrCredentialUnavailable indicates the token exchange failed
	ErrCredentialUnavailable = errors.New("catalog credential unavailable")

	// ErrUnauthorized indicates the provider rejected the bearer token (HTTP 401)
	ErrUnauthorized = errors.New("catalog token rejected")

	// ErrServerOffline indicates the provider is unreachable
	ErrServerOffline = errors.New("catalog provider is unreachable")

	// ErrMalformedResponse indicates a response body that could not be decoded
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrNotConfigured indicates required credentials are missing from config
	ErrNotConfigured = errors.New("catalog provider not configured")
)

// StatusError is a non-2xx, non-401 provider response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Message)
}

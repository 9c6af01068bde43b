package domain

import "errors"

var (
	// Callback outcome errors
	ErrStateDecode    = errors.New("callback state could not be decoded")
	ErrAccessDenied   = errors.New("access denied")
	ErrCorrelation    = errors.New("correlation token mismatch")
	ErrMissingCode    = errors.New("missing authorization code")
	ErrHookFailed     = errors.New("authenticated hook failed")
	ErrIdentityVetoed = errors.New("identity rejected by authenticated hook")

	// Provider errors
	ErrTransport         = errors.New("token endpoint unreachable")
	ErrProviderResponse  = errors.New("token endpoint returned an error status")
	ErrMalformedResponse = errors.New("malformed token response")
	ErrProfileFetch      = errors.New("failed to fetch user profile")

	// Provider registry errors
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDuplicateProvider = errors.New("duplicate provider registration")

	// State token errors
	ErrInvalidState   = errors.New("invalid state token")
	ErrExpiredState   = errors.New("expired state token")
	ErrMalformedState = errors.New("malformed state token")

	// Return URL errors
	ErrReturnURLNotAllowed = errors.New("return URL not allowed")

	// Session ticket errors
	ErrInvalidSession = errors.New("invalid session ticket")
	ErrExpiredSession = errors.New("expired session ticket")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

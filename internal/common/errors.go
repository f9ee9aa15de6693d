// Package common defines shared constants and sentinel errors used across
// the server layers of modelkeeper. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorIntegrityFault = errors.New("integrity fault")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthenticated    = errors.New("not authenticated")
	ErrorInvalidCredentials = errors.New("wrong credentials")
	ErrorForbidden          = errors.New("not authorized")

	// Request validation errors.
	ErrorMalformedRequest = errors.New("malformed request")

	// Prediction errors.
	ErrorAlgorithmNotFound      = errors.New("algorithm not found")
	ErrorInvalidModelParameters = errors.New("invalid model parameters")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types
const (
	ErrorTypeInvalidCredential ErrorType = "invalid_credential"
	ErrorTypeTokenExpired      ErrorType = "token_expired"
	ErrorTypeTokenMalformed    ErrorType = "token_malformed"
	ErrorTypeSignatureInvalid  ErrorType = "signature_invalid"
)

// AuthError represents authentication-specific errors with security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged
	// Some auth errors (like normal expiry) are expected and don't need error-level logging
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidCredentialError creates an error for a bearer credential the
// identity provider rejected
func NewInvalidCredentialError(details ...string) *AuthError {
	detail := "Credential could not be verified. Please sign in again"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidCredential,
			Message: "Invalid credential",
			Code:    http.StatusUnauthorized,
			Details: detail,
		},
		ShouldLog:     false, // expected on stale clients
		SecurityEvent: true,
	}
}

// NewTokenExpiredError creates an error for expired tokens
func NewTokenExpiredError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExpired,
			Message: fmt.Sprintf("%s has expired", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Please sync again to obtain a fresh token",
		},
		ShouldLog:     false, // normal expiration
		SecurityEvent: false,
	}
}

// NewTokenMalformedError creates an error for tokens that cannot be parsed
func NewTokenMalformedError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenMalformed,
			Message: fmt.Sprintf("Malformed %s", tokenType),
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     true, // may indicate a broken client
		SecurityEvent: false,
	}
}

// NewSignatureInvalidError creates an error for tokens whose signature
// does not verify
func NewSignatureInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSignatureInvalid,
			Message: fmt.Sprintf("Invalid %s signature", tokenType),
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     true, // potential tampering
		SecurityEvent: true,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// ShouldLogAuthError returns true if the authentication error should be logged
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

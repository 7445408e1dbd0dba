// Package identity defines the port to the external identity provider.
// Credential verification is a black box: it takes an opaque bearer
// credential and yields a stable subject.
package identity

import "context"

// Subject is the verified identity behind a bearer credential.
type Subject struct {
	SubjectID string
	Email     string
	Name      string
}

// Verifier validates a bearer credential with the external identity
// provider. Implementations must return an AuthError for rejected
// credentials and an ExternalServiceError when the provider is unreachable.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Subject, error)
}

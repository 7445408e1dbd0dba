// Package identity implements credential verification against the external
// identity provider's REST lookup endpoint.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vtm/internal/application/identity"
	"vtm/internal/shared/config"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

const defaultTimeout = 10 * time.Second

type HTTPVerifier struct {
	verifyURL string
	apiKey    string
	client    *http.Client
	logger    logger.Interface
}

func NewHTTPVerifier(cfg *config.IdentityConfig, logger logger.Interface) *HTTPVerifier {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPVerifier{
		verifyURL: cfg.VerifyURL,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

var _ identity.Verifier = (*HTTPVerifier)(nil)

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"users"`
}

// Verify posts the credential to the provider's account lookup endpoint and
// returns the verified subject. A 4xx answer means the credential was
// rejected; transport failures are transient.
func (v *HTTPVerifier) Verify(ctx context.Context, credential string) (*identity.Subject, error) {
	if credential == "" {
		return nil, apperrors.NewInvalidCredentialError("missing credential")
	}

	body, err := json.Marshal(lookupRequest{IDToken: credential})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	url := v.verifyURL
	if v.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", v.verifyURL, v.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("identity provider unreachable", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, apperrors.NewInvalidCredentialError()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalServiceError(
			fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("failed to read identity response", err.Error())
	}

	var lookup lookupResponse
	if err := json.Unmarshal(data, &lookup); err != nil {
		return nil, apperrors.NewExternalServiceError("malformed identity response", err.Error())
	}
	if len(lookup.Users) == 0 || lookup.Users[0].LocalID == "" {
		return nil, apperrors.NewInvalidCredentialError("credential resolves to no subject")
	}

	u := lookup.Users[0]
	return &identity.Subject{
		SubjectID: u.LocalID,
		Email:     u.Email,
		Name:      u.DisplayName,
	}, nil
}

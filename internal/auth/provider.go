package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/manish6022/hrone-sub000/internal/shared"
)

// Provider exchanges credentials for a token grant. The concrete
// implementation talks to the external identity service, which owns user
// records, password verification, and token signing.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (*Grant, error)
}

// HTTPProvider is the identity-service client.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider constructs a provider against the given base URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Authenticate posts the credentials to the identity service and decodes
// the grant. Any 4xx answer maps to ErrInvalidCredentials so callers
// cannot distinguish unknown accounts from wrong passwords.
func (p *HTTPProvider) Authenticate(ctx context.Context, creds Credentials) (*Grant, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("auth: encode credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/tokens", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("auth: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: identity service: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return nil, shared.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("auth: identity service status %d", res.StatusCode)
	}

	var grant Grant
	if err := json.NewDecoder(res.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("auth: decode grant: %w", err)
	}
	if grant.Token == "" || grant.Identity == nil {
		return nil, fmt.Errorf("auth: identity service returned an incomplete grant")
	}
	return &grant, nil
}

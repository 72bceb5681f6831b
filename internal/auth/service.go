package auth

import (
	"context"
	"time"

	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/token"
)

// Service wraps the login and logout business rules around the identity
// provider, the token codec, and the revocation list.
type Service struct {
	provider    Provider
	codec       *token.Codec
	revocations *session.RevocationList
}

// NewService constructs a Service.
func NewService(provider Provider, codec *token.Codec, revocations *session.RevocationList) *Service {
	return &Service{provider: provider, codec: codec, revocations: revocations}
}

// Login exchanges credentials for a grant and rejects grants whose token
// is already expired or undecodable on arrival.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Grant, error) {
	grant, err := s.provider.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	if _, err := s.codec.Validate(grant.Token); err != nil {
		return nil, err
	}
	return grant, nil
}

// Revoke denylists the token for the remainder of its life so a stolen
// cookie is useless after logout.
func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	claims, err := s.codec.Decode(rawToken)
	if err != nil || claims.ExpiresAt == nil {
		// Undecodable tokens cannot authenticate anyway.
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	return s.revocations.Revoke(ctx, rawToken, remaining)
}

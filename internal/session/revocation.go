package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is a redis-backed denylist of tokens invalidated before
// their natural expiry. Logout writes the token with a TTL equal to its
// remaining life, so entries evaporate on their own once the token would
// have expired anyway.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList constructs a RevocationList. A nil client disables
// revocation checks entirely.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke denylists the token for the given remaining lifetime.
func (l *RevocationList) Revoke(ctx context.Context, rawToken string, remaining time.Duration) error {
	if l == nil || l.client == nil || rawToken == "" {
		return nil
	}
	if remaining <= 0 {
		return nil
	}
	return l.client.Set(ctx, revocationKey(rawToken), "1", remaining).Err()
}

// IsRevoked reports whether the token has been denylisted. Lookup errors
// fail closed: an unreachable list treats the token as revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, rawToken string) bool {
	if l == nil || l.client == nil || rawToken == "" {
		return false
	}
	n, err := l.client.Exists(ctx, revocationKey(rawToken)).Result()
	if err != nil {
		return true
	}
	return n > 0
}

func revocationKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return "revoked:" + hex.EncodeToString(sum[:])
}

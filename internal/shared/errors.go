package shared

import "errors"

var (
	// ErrMalformedToken indicates a token that cannot be structurally decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken indicates a token whose exp claim is in the past.
	ErrExpiredToken = errors.New("expired token")
	// ErrMissingCredential indicates an absent token or authorization header.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInsufficientPrivilege indicates an authenticated but under-privileged actor.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
	// ErrCSRFMismatch occurs when the double-submit tokens are absent or unequal.
	ErrCSRFMismatch = errors.New("csrf token mismatch")
	// ErrRateLimited indicates the sliding-window ceiling was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidRequestShape indicates required body fields are missing.
	ErrInvalidRequestShape = errors.New("invalid request shape")
	// ErrCorruptedSession indicates an unparseable persisted identity snapshot.
	ErrCorruptedSession = errors.New("corrupted session")
	// ErrInvalidCredentials indicates login failure at the identity provider.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

package health

import (
	"context"
	"time"

	"github.com/felixgeelhaar/psichat/internal/auth"
)

// CredentialsChecker verifies the stored token can be read and is not expired.
type CredentialsChecker struct {
	tokens auth.TokenStore
	now    func() time.Time
}

// NewCredentialsChecker creates a checker over tokens. now may be nil.
func NewCredentialsChecker(tokens auth.TokenStore, now func() time.Time) *CredentialsChecker {
	if now == nil {
		now = time.Now
	}
	return &CredentialsChecker{tokens: tokens, now: now}
}

// Name implements Checker.
func (c *CredentialsChecker) Name() string { return "credentials" }

// Check implements Checker. No token is healthy; the session is simply anonymous.
func (c *CredentialsChecker) Check(_ context.Context) *Result {
	token, err := c.tokens.Token()
	if err != nil {
		return Unhealthy("stored token cannot be read").WithDetail("error", err.Error())
	}
	if token == "" {
		return Healthy("no stored session")
	}

	res := Healthy("stored session present").WithDetail("fingerprint", auth.Fingerprint(token))
	info, err := auth.InspectToken(token)
	if err != nil || !info.IsJWT {
		return res
	}
	if !info.ExpiresAt.IsZero() {
		res.WithDetail("expires_at", info.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if info.Expired(c.now()) {
		return Degraded("stored session expired, log in again").WithDetail("expires_at", info.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return res
}

package auth

import (
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

// TokenInfo is what the client can learn from a bearer token without
// verifying it. The backend remains the only authority on validity.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IsJWT     bool
}

// Expired reports whether the token carries an expiry that is before now.
// Tokens without an expiry never report expired.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// InspectToken decodes the claims of a JWT without checking its signature.
// Opaque tokens return a zero TokenInfo with IsJWT false and no error.
func InspectToken(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, NewError(ErrTokenMissing, "token is empty", nil)
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, nil
	}

	info := TokenInfo{Subject: claims.Subject, IsJWT: true}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Fingerprint returns a short stable digest of a token, safe to log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

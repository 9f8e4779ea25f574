package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken means the stored token is not a parseable JWT.
var ErrInvalidToken = errors.New("invalid token format")

// TokenInfo holds claims worth displaying about the stored bearer token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken parses the token without verifying its signature. The backend
// verifies the full token on every request; this is only for reporting
// expiry and subject in `taskdeck status`.
func InspectToken(token string) (TokenInfo, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, ErrInvalidToken
	}

	info := TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// Expired returns true if the token carries an expiry in the past. Tokens
// without an exp claim are reported as not expired; the backend is the
// authority either way.
func (i TokenInfo) Expired() bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(i.ExpiresAt)
}

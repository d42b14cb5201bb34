// Package identity handles the parent bearer token: header encoding and
// client-side inspection of its expiry.
package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// HeaderName is the request header carrying the bearer token.
	HeaderName   = "Authorization"
	bearerPrefix = "Bearer "
)

// BearerHeader returns the Authorization header value for token.
func BearerHeader(token string) string {
	return bearerPrefix + token
}

// TokenFromHeader extracts the bearer token from an Authorization header value.
func TokenFromHeader(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix))
	return token, token != ""
}

// Expiry returns the exp claim of token. The signature is not verified: the
// client never holds the signing key and only uses exp to discard sessions
// the server would reject anyway. ok is false for opaque tokens and tokens
// without exp.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired returns true if token carries an exp claim at or before now.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return !now.Before(exp)
}

package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValid reports whether token is a decodable JWT whose exp claim is in
// the future. The backend signs its tokens; the client only reads expiry,
// so the signature is deliberately not verified. A missing exp claim means
// the token does not expire. This is a pure predicate: decode failures are
// "invalid", never an error.
func TokenValid(token string) bool {
	return tokenValidAt(token, time.Now())
}

func tokenValidAt(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		return true
	}

	return exp.After(now)
}

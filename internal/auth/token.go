package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/quillfeed/quillfeed/internal/apperr"
)

// Principal is the authenticated identity every other component consumes
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TokenPair is an access/refresh token pair issued together
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// claims embeds the principal in a signed token
type claims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

// createToken signs a token carrying the principal, valid from now for
// the given lifetime
func createToken(principal Principal, secret string, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every issued token unique, so two tokens for
			// the same principal never collide in the revocable set
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	})

	return token.SignedString([]byte(secret))
}

// verifyToken parses a token and returns the embedded principal. It fails
// closed: signature mismatch, expiry and not-before are all rejected.
func verifyToken(tokenString, secret string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("could not validate credentials")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, apperr.Unauthorized("could not validate credentials")
	}
	if c.User.ID == 0 || c.User.Username == "" {
		return Principal{}, apperr.Unauthorized("could not validate credentials")
	}

	return c.User, nil
}

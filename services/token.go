package services

import (
	"errors"
	"fmt"
	"time"

	"notespace/model"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the part of an access token the client cares about.
type AccessClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type accessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenParser reads access tokens issued by the auth service. With a secret
// the HS256 signature is checked; without one the claims are only decoded,
// the service remains the authority either way.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// Parse returns the claims of token. An expired token still yields its
// claims together with an error wrapping model.ErrSessionExpired.
func (p *TokenParser) Parse(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, model.ErrUnauthenticated
	}

	var claims accessTokenClaims
	if len(p.secret) > 0 {
		_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
			return p.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", model.ErrSessionExpired, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrSessionExpired, err)
		}
	}

	out := &AccessClaims{UserID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if !out.ExpiresAt.IsZero() && !time.Now().Before(out.ExpiresAt) {
		return out, fmt.Errorf("%w: access token expired at %s", model.ErrSessionExpired, out.ExpiresAt.Format(time.RFC3339))
	}
	return out, nil
}

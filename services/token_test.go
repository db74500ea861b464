package services

import (
	"errors"
	"testing"
	"time"

	"notespace/model"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, sub, email string, expiresAt time.Time) string {
	t.Helper()
	claims := accessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenParser(t *testing.T) {
	valid := signToken(t, "secret", "u1", "ada@example.com", time.Now().Add(time.Hour))
	expired := signToken(t, "secret", "u1", "ada@example.com", time.Now().Add(-time.Minute))
	foreign := signToken(t, "other", "u1", "ada@example.com", time.Now().Add(time.Hour))

	tests := []struct {
		name          string
		secret        string
		token         string
		expectClaims  bool
		expectedError error
	}{
		{name: "Valid signed", secret: "secret", token: valid, expectClaims: true},
		{name: "Valid unverified", secret: "", token: valid, expectClaims: true},
		{name: "Expired keeps claims", secret: "secret", token: expired, expectClaims: true, expectedError: model.ErrSessionExpired},
		{name: "Wrong signature", secret: "secret", token: foreign, expectedError: model.ErrSessionExpired},
		{name: "Unverified ignores signature", secret: "", token: foreign, expectClaims: true},
		{name: "Garbage", secret: "", token: "not-a-token", expectedError: model.ErrSessionExpired},
		{name: "Empty", secret: "secret", token: "", expectedError: model.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := NewTokenParser(tt.secret).Parse(tt.token)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.expectedError)
				}
			} else if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}

			if tt.expectClaims {
				if claims == nil {
					t.Fatal("Parse() returned no claims")
				}
				if claims.UserID != "u1" || claims.Email != "ada@example.com" {
					t.Errorf("Parse() claims = %+v", claims)
				}
			} else if claims != nil {
				t.Errorf("Parse() returned claims %+v, want none", claims)
			}
		})
	}
}

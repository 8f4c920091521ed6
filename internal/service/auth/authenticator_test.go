package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "myverysecuresecret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newAuthenticator() *Authenticator {
	return New(testSecret, logger.InitLogger("auth-test", logger.LevelError))
}

func TestVerify_ValidToken(t *testing.T) {
	a := newAuthenticator()
	userID := uuid.Must()

	credential := signToken(t, testSecret, jwt.MapClaims{
		"id":   userID.String(),
		"role": "driver",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	ident, err := a.Verify(context.Background(), credential)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident.ID != userID {
		t.Fatalf("expected user id %s, got %s", userID, ident.ID)
	}
	if ident.Role != types.DriverRole {
		t.Fatalf("expected driver role, got %s", ident.Role)
	}
}

func TestVerify_BearerPrefix(t *testing.T) {
	a := newAuthenticator()
	credential := signToken(t, testSecret, jwt.MapClaims{
		"id":   uuid.Must().String(),
		"role": "passenger",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	if _, err := a.Verify(context.Background(), "Bearer "+credential); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerify_MissingToken(t *testing.T) {
	a := newAuthenticator()
	if _, err := a.Verify(context.Background(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	a := newAuthenticator()
	credential := signToken(t, testSecret, jwt.MapClaims{
		"id":   uuid.Must().String(),
		"role": "passenger",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})

	_, err := a.Verify(context.Background(), credential)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if !IsAuthError(err) {
		t.Fatalf("expired token must classify as auth error")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a := newAuthenticator()
	credential := signToken(t, "someothersecret", jwt.MapClaims{
		"id":   uuid.Must().String(),
		"role": "passenger",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	if _, err := a.Verify(context.Background(), credential); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_MalformedToken(t *testing.T) {
	a := newAuthenticator()
	if _, err := a.Verify(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_BadClaims(t *testing.T) {
	a := newAuthenticator()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing id", jwt.MapClaims{"role": "driver", "exp": time.Now().Add(time.Hour).Unix()}},
		{"bad uuid", jwt.MapClaims{"id": "12345", "role": "driver", "exp": time.Now().Add(time.Hour).Unix()}},
		{"unknown role", jwt.MapClaims{"id": uuid.Must().String(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credential := signToken(t, testSecret, tt.claims)
			if _, err := a.Verify(context.Background(), credential); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

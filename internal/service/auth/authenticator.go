package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator verifies connection credentials.
// Token issuance lives in the auth service, this side only validates.
type Authenticator struct {
	secret string
	log    logger.Logger
}

func New(secret string, log logger.Logger) *Authenticator {
	return &Authenticator{
		secret: secret,
		log:    log,
	}
}

// Verify checks the signature and expiry of the presented credential and
// extracts the carried identity. The credential may use a "Bearer " prefix.
func (a *Authenticator) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "verify_connection_credential")

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, wrap.Error(ctx, ErrTokenMissing)
	}
	credential = strings.TrimPrefix(credential, "Bearer ")

	parsedToken, err := jwt.ParseWithClaims(credential, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(a.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, ErrExpiredToken)
		}
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}
	if !parsedToken.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	idStr, _ := mc["id"].(string)
	if idStr == "" {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	roleStr, _ := mc["role"].(string)
	if !types.IsValidRole(roleStr) {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	return &models.Identity{
		ID:   userID,
		Role: types.UserRole(roleStr),
	}, nil
}

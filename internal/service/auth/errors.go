package auth

import "errors"

var (
	ErrTokenMissing = errors.New("authorization token missing")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// IsAuthError reports whether err belongs to the credential failure taxonomy.
// Any of these must close the connection before it joins the registry.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrTokenMissing) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken)
}

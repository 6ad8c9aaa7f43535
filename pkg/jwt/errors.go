package jwt

import "errors"

var (
	ErrInvalidToken         = errors.New("jwt: invalid token")
	ErrExpiredToken         = errors.New("jwt: token is expired")
	ErrMissingToken         = errors.New("jwt: missing token")
	ErrMissingSigningKey    = errors.New("jwt: missing signing key")
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrMissingSubject       = errors.New("jwt: missing subject")
	ErrForbidden            = errors.New("jwt: missing required role")
)

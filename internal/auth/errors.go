package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: account not found")
	ErrAlreadyExists      = errors.New("auth: account already exists")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrForbidden          = errors.New("auth: not permitted")
)

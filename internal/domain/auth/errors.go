package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is not active")
	ErrInvalidToken       = errors.New("invalid or missing token")
	ErrForbidden          = errors.New("insufficient role for this operation")
)

package domain

import "errors"

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingUsername    = errors.New("username is required")
	ErrNoSession          = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired, please log in again")
)

package auth

import "errors"

var (
	ErrAlreadyInitialized = errors.New("auth core already initialized")
	ErrNotInitialized     = errors.New("auth core not initialized")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrLoginInFlight      = errors.New("a login is already in progress")
	ErrSuperseded         = errors.New("operation superseded by a later one")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
)

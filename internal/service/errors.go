package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrMessageCreate is returned after the bounded retry on write
	// conflicts is exhausted.
	ErrMessageCreate = errors.New("could not create message")
)

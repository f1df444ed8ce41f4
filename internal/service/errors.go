package service

import (
	"errors"

	"rental-site/internal/repository/backend"
)

var (
	ErrNotFound           = backend.ErrNotFound
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("too many requests")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrVehicleUnavailable = errors.New("vehicle is not available for the requested dates")
)

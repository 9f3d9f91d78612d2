package usecase

import (
	"errors"
	"fmt"
)

// Service-level error classes. The HTTP layer maps each to a status code;
// domain rejections from the contest package pass through unwrapped.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

func notFound(kind string, key any) error {
	return fmt.Errorf("%w: %s=%v", ErrNotFound, kind, key)
}

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

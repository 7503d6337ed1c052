package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a non-zero integer between %d and %d", ErrInvalidInput, MinAward, MaxAward)
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr marks a database failure as retryable by the caller.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// PaywallError is returned when the access resolver denies a content request.
type PaywallError struct {
	Decision AccessDecision
}

func (e *PaywallError) Error() string {
	return "paywall: " + e.Decision.Message
}

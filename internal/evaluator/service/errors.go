package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized             = errors.New("no authenticated user")
	ErrPersistenceNotConfigured = errors.New("persistence is not configured")
	ErrPricingNotConfigured     = errors.New("price provider is not configured")
	ErrPriceAPIKeyMissing       = errors.New("price API key is missing")
)

// QuotaExceededError is returned when the user has used all evaluation runs for the day.
type QuotaExceededError struct {
	UsedCount int
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily evaluation limit reached (%d of %d)", e.UsedCount, e.Limit)
}

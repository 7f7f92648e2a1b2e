package core

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimitExceeded is returned when the daily send cap is reached
	ErrRateLimitExceeded = errors.New("daily email limit reached")
	// ErrNotFound is returned when a ledger lookup has no match
	ErrNotFound = errors.New("record not found")
	// ErrMalformedClassification is returned when model output cannot be used
	ErrMalformedClassification = errors.New("malformed classification")
)

// GenerationError reports a failed call to a text generator
type GenerationError struct {
	Purpose string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Purpose, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

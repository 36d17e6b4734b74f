package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable is returned by a Fetcher once every attempt for a page has failed.
	ErrUnavailable = errors.New("page unavailable")

	// ErrDuplicate is returned by a ListingStore when an insert violates the
	// unique identity constraint.
	ErrDuplicate = errors.New("duplicate listing")

	// ErrConnectionLost marks store failures that make the rest of a run pointless.
	ErrConnectionLost = errors.New("store connection lost")

	// ErrRunInProgress is returned when a run for the same source and category
	// is already active.
	ErrRunInProgress = errors.New("run already in progress")

	ErrUnknownSource = errors.New("unknown source")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

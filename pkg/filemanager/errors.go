package filemanager

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned for an id that is neither active nor
	// retained in the finished status cache.
	ErrJobNotFound = errors.New("job not found")

	// ErrManagerClosed is returned by submissions after Close.
	ErrManagerClosed = errors.New("file manager is closed")

	// ErrQueueFull is returned when the submission queue has no room left.
	ErrQueueFull = errors.New("job queue is full")

	// ErrRateLimited is returned when submissions exceed the configured rate.
	ErrRateLimited = errors.New("job submission rate exceeded")

	// ErrInvalidRequest is returned for malformed requests.
	ErrInvalidRequest = errors.New("invalid job request")
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

package crawler

import (
	"errors"
	"fmt"
)

// ErrInvalidSeed is matched by every *InvalidSeedError.
var ErrInvalidSeed = errors.New("invalid seed url")

// InvalidSeedError is returned by Run when the seed URL cannot start a crawl.
type InvalidSeedError struct {
	// Seed is the value that was rejected.
	Seed string

	// Reason describes what is wrong with the seed.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *InvalidSeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s: %v", ErrInvalidSeed, e.Seed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidSeed, e.Seed, e.Reason)
}

// Unwrap returns the underlying parse error.
func (e *InvalidSeedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidSeed.
func (e *InvalidSeedError) Is(target error) bool {
	return target == ErrInvalidSeed
}

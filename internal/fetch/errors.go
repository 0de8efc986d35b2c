package fetch

import (
	"errors"
	"fmt"
)

// ErrRetryableStatus is wrapped by a FetchError when the final attempt
// still returned a retryable status code.
var ErrRetryableStatus = errors.New("server kept returning a retryable status")

// FetchError reports that a page could not be retrieved after the retry
// policy was exhausted.
type FetchError struct {
	// URL is the page that failed.
	URL string

	// Reason is a short human-readable cause, e.g. "status 503".
	Reason string

	// Attempts is the number of requests made.
	Attempts int

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %s", e.URL, e.Attempts, e.Reason)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no website to crawl was given.
	ErrNoTarget = errors.New("no target specified: provide a website URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	// Use 0 to disable retries.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would never fetch anything.
	ErrInvalidWorkers = errors.New("invalid workers: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrNoSink is returned when no output destination is selected.
	ErrNoSink = errors.New("no sink specified: use at least one of file, sqlite, redis")

	// ErrUnknownSink is returned for a sink name other than file, sqlite or redis.
	ErrUnknownSink = errors.New("unknown sink")

	// ErrMissingDBDir is returned when the sqlite sink has no directory.
	ErrMissingDBDir = errors.New("sqlite sink requires a database directory")

	// ErrMissingRedisAddr is returned when the redis sink has no address.
	ErrMissingRedisAddr = errors.New("redis sink requires a server address")
)

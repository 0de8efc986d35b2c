// Package log provides logging with automatic sanitization of sensitive
// information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Masking of credentials (proxy and Redis passwords, tokens, cookies)
//   - Optional redaction of the email addresses the crawler collects
//   - Configurable log levels with verbose mode support
//
// # Redaction
//
// A crawl logs the addresses it finds at debug level and wraps them into
// errors when a sink fails. Logs are often shared when reporting a
// problem, so with redaction enabled every address in an attribute value
// keeps its domain and loses its local part:
//
//	info@example.com -> ***@example.com
//
// Credentials are always masked, redaction or not.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, redact)
//	logger.Warn("sink failed", "error", err)
package log

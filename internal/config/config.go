package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/mailcrawl/internal/fetch"
)

// Sink names accepted in Config.Sinks.
const (
	SinkFile   = "file"
	SinkSQLite = "sqlite"
	SinkRedis  = "redis"
)

// Log formats accepted in Config.LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mailcrawl"

	// DefaultTimeout bounds a single HTTP request. Ordinary web servers
	// answer well within it; slower ones are retried.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultMaxRetries is the number of retries after a failed attempt,
	// so a page is tried at most five times.
	DefaultMaxRetries = fetch.DefaultMaxRetries

	// DefaultWorkers of 1 fetches pages one at a time, which keeps the
	// output in discovery order and puts the least load on the target.
	DefaultWorkers = 1

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultUserAgent is a desktop browser User-Agent. Many sites serve
	// reduced pages or block unknown clients.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultOutputDir is where the CSV and visited-URL files are written.
	DefaultOutputDir = "."

	// DefaultRedisAddr is the address of a local Redis server.
	DefaultRedisAddr = "127.0.0.1:6379"

	// DefaultRedisPrefix namespaces every key mailcrawl writes to Redis.
	DefaultRedisPrefix = "mailcrawl:"
)

// Config holds all configuration options for mailcrawl.
// This struct is populated from defaults, the config file and CLI flags,
// in that order, and passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Target is the website to crawl.
	Target string

	// Timeout is the timeout of a single HTTP request attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after a failed attempt.
	MaxRetries int

	// Workers is the number of pages fetched concurrently.
	Workers int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Proxy is an optional SOCKS5 proxy address in "host:port" format.
	Proxy string

	// Extensions replaces the built-in list of file extensions that are
	// never crawled. nil keeps the built-in list.
	Extensions []string

	// Sinks lists the output destinations: file, sqlite and/or redis.
	Sinks []string

	// OutputDir is the directory for the CSV and visited-URL files.
	OutputDir string

	// DBDir is the directory holding the SQLite database.
	// Defaults to XDG data directory (~/.local/share/mailcrawl on Linux).
	DBDir string

	// RedisAddr is the Redis server address used by the redis sink.
	RedisAddr string

	// RedisPrefix is prepended to every Redis key.
	RedisPrefix string

	// ReportFile is the path of an optional Markdown summary.
	ReportFile string

	// JSONReport prints a JSON summary to stdout after the crawl.
	JSONReport bool

	// MetricsFile is the path of an optional Prometheus textfile.
	MetricsFile string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Redact masks email addresses in log output.
	Redact bool

	// LogFormat selects the log encoding on stderr: text or json.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .mailcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, workers).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		Workers:     DefaultWorkers,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		Sinks:       []string{SinkFile},
		OutputDir:   DefaultOutputDir,
		DBDir:       XDGDataDir(),
		RedisAddr:   DefaultRedisAddr,
		RedisPrefix: DefaultRedisPrefix,
		LogFormat:   LogFormatText,
	}
}

// XDGDataDir returns the XDG data directory for mailcrawl.
// On Linux: ~/.local/share/mailcrawl
// On macOS: ~/Library/Application Support/mailcrawl
// On Windows: %LOCALAPPDATA%\mailcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// HasSink reports whether the named sink is selected.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// ApplySite overlays the configuration file entries for domain onto c.
// Only values set in the file are applied; CLI flags are applied by the
// caller afterwards so that they win.
func (c *Config) ApplySite(domain string) {
	if c.SiteConfigs == nil {
		return
	}

	site := c.SiteConfigs.GetSiteConfig(domain)
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if site.Timeout > 0 {
		c.Timeout = site.Timeout
	}
	if site.Workers > 0 {
		c.Workers = site.Workers
	}
	if site.Retries != nil {
		c.MaxRetries = *site.Retries
	}
	if len(site.Extensions) > 0 {
		c.Extensions = site.Extensions
	}
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}

	if c.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}

	if len(c.Sinks) == 0 {
		return ErrNoSink
	}
	for _, s := range c.Sinks {
		switch s {
		case SinkFile:
		case SinkSQLite:
			if c.DBDir == "" {
				return ErrMissingDBDir
			}
		case SinkRedis:
			if c.RedisAddr == "" {
				return ErrMissingRedisAddr
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSink, s)
		}
	}

	return nil
}

package config

import "time"

// SiteConfig holds site-specific configuration for a single domain.
// This allows customizing crawl behavior per website.
type SiteConfig struct {
	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Timeout overrides the per-request timeout, e.g. "45s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Workers overrides the number of concurrent fetches.
	// If zero, the global value is used.
	Workers int `yaml:"workers,omitempty"`

	// Retries overrides the retry count. A pointer so that an explicit 0
	// (no retries) differs from "not set".
	Retries *int `yaml:"retries,omitempty"`

	// Extensions replaces the list of file extensions that are never
	// crawled, e.g. [".pdf", ".zip"].
	Extensions []string `yaml:"extensions,omitempty"`
}

// File represents the structure of the .mailcrawl configuration file.
type File struct {
	// Sites maps domains to their site-specific configurations.
	// Keys are the host (and port, if any) without the scheme,
	// e.g. "example.com" or "localhost:8080".
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific domain.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[domain]; ok {
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if siteConfig.Timeout > 0 {
			result.Timeout = siteConfig.Timeout
		}
		if siteConfig.Workers != 0 {
			result.Workers = siteConfig.Workers
		}
		if siteConfig.Retries != nil {
			result.Retries = siteConfig.Retries
		}
		if len(siteConfig.Extensions) > 0 {
			result.Extensions = siteConfig.Extensions
		}
	}

	return result
}

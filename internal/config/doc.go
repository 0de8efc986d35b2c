// Package config provides configuration structures and utilities for mailcrawl.
// It defines the crawl, fetch and output options, and loads per-site
// overrides from the optional .mailcrawl YAML file.
package config

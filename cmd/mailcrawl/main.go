// Package main provides the entry point for the mailcrawl CLI.
//
// mailcrawl crawls a single website, following only links on the same
// host, and collects every email address that appears in the fetched pages.
//
// Usage:
//
//	mailcrawl https://example.com
//	mailcrawl emails example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}

// Package database provides SQLite-based storage for mailcrawl.
//
// This package implements the CrawlDB, which stores:
//   - Crawl sessions with their final counters
//   - Email addresses found per domain, with the page they came from
//   - The ordered list of URLs visited by each session
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Emails accumulate across crawls of the same domain, which a flat CSV
// file cannot deduplicate
// 4. WAL mode lets the emails/history subcommands read while a crawl writes
package database

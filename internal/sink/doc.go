// Package sink persists what a crawl produces.
//
// A Sink receives each newly discovered email address as soon as it is
// found, and the final crawl statistics (including the ordered list of
// visited URLs) once the crawl ends. Three destinations are provided:
//   - FileSink: a CSV file of emails and a text file of visited URLs
//   - DatabaseSink: the SQLite CrawlDB
//   - RedisSink: per-domain Redis keys
//
// Multi fans one crawl out to several sinks.
//
// Design decision: Deduplication of emails within a crawl belongs to the
// crawl engine, not to the sinks. A sink writes exactly what it is given,
// which keeps every implementation a thin adapter over its storage.
package sink

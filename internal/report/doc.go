// Package report presents crawl progress and results.
//
// This package contains:
//   - ConsoleReporter: live progress lines on the terminal while crawling
//   - MarkdownWriter: a Markdown summary of a finished crawl
//   - JSONWriter: the crawl statistics as JSON for tool integration
//
// Design decision: We separate report writing from the statistics data
// structure (which is in the model package) to follow the single
// responsibility principle. This allows adding new output formats without
// modifying the crawl engine.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report

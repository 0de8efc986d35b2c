// Package crawler implements the email crawl engine.
//
// # Architecture
//
// The Spider coordinates a crawl of one website. Starting from a seed URL it
// repeatedly takes the next URL from a FIFO frontier, fetches it, records the
// email addresses found in the page, and admits the page's same-site links
// into the frontier. The crawl ends when the frontier is empty and no fetch
// is in flight.
//
// Design decision: All mutable crawl state lives in a session created by
// each Run call. A Spider only holds configuration, so two crawls started
// from the same Spider (or from two Spiders) never share frontier, visited
// or email sets.
//
// # Components
//
//   - Spider: configuration plus the worker loop
//   - Frontier: FIFO queue of URLs with a membership set
//   - session: frontier, in-flight, visited and email sets of one crawl
//
// # Concurrency
//
// Workers share the session through one mutex and a condition variable.
// A URL is admitted to the frontier only when it is absent from the
// frontier, the in-flight set and the visited set, so every URL is fetched
// at most once no matter how many workers run.
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, sink, crawler.WithWorkers(4))
//	stats, err := spider.Run(ctx, "https://example.com/")
package crawler

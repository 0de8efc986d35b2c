// Package fetch retrieves single web pages for the crawler.
//
// The HTTPFetcher performs one GET per call, retries transient failures with
// exponential backoff, and hands back the decoded body together with the raw
// href values of every anchor in the document. The crawl engine never
// retries; a *FetchError from this package is terminal for that URL.
//
// # Retry policy
//
// A request is retried when the transport fails or the server answers with
// 5xx or 429. Other statuses, including 404, are final and are returned as
// pages, because error pages still carry site navigation and contact text.
// Retries use exponential backoff with jitter via failsafe-go, and stop as
// soon as the context is cancelled.
package fetch

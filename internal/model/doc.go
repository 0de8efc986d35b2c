// Package model defines the data structures shared by the crawler packages.
//
// This package contains the following main types:
//   - Page: one fetched page, with its body and the raw hyperlinks it contains
//   - EmailRecord: one newly discovered email address and where it was found
//   - Stats: the outcome of a crawl session, including the visited-URL snapshot
//
// Design decision: We keep models in their own package because the fetcher,
// the crawl engine, the sinks and the report writers all exchange them, and
// centralizing them prevents import cycles.
package model

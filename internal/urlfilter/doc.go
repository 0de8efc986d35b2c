// Package urlfilter turns the raw hyperlinks found on a page into the set of
// absolute URLs the crawler may fetch next.
//
// A link is resolved against the URL of the page it was found on, put into a
// canonical form, and accepted only when it belongs to the crawl target's
// authority and does not point at a non-content file (an image, archive,
// stylesheet and so on).
//
// # Canonical form
//
//   - scheme and host are lowercased
//   - the fragment is always removed, so "#top" resolves to the page itself
//   - an empty path becomes "/"
//   - the query string is kept as is
//
// Two links that differ only in those respects therefore map to the same
// frontier entry.
package urlfilter

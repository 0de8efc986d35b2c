// Package extract finds probable email addresses in page text.
//
// The pattern is deliberately permissive: it matches anything shaped like
// local@domain.tld, including asset names such as "logo@2x.png". A suffix
// heuristic removes the most common of those false positives. Callers should
// treat the result as candidates, not validated addresses.
package extract

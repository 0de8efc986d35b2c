package model

import "time"

// Stats summarizes a crawl session.
// It is returned by the crawl engine and handed to sinks and report writers
// when the session ends, whether it ran to completion or was interrupted.
type Stats struct {
	// SessionID is a unique identifier for the crawl session.
	SessionID string `json:"session_id"`

	// Seed is the canonical form of the starting URL.
	Seed string `json:"seed"`

	// Domain is the seed's host (and port, if any).
	// Output destinations are keyed by this value.
	Domain string `json:"domain"`

	// URLsVisited is the number of URLs fetched, including failed fetches.
	URLsVisited int `json:"urls_visited"`

	// EmailsFound is the number of distinct email addresses recorded.
	EmailsFound int `json:"emails_found"`

	// FetchFailures is the number of URLs whose fetch failed terminally.
	FetchFailures int `json:"fetch_failures"`

	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the frontier drained or the crawl was interrupted.
	FinishedAt time.Time `json:"finished_at"`

	// Interrupted is true when the crawl was cancelled before the frontier
	// was empty.
	Interrupted bool `json:"interrupted"`

	// Visited lists every visited URL in the order the fetches completed.
	Visited []string `json:"visited"`

	// Emails lists every recorded email address in discovery order.
	Emails []string `json:"emails"`
}

// Duration returns how long the session ran.
func (s *Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

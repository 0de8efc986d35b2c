package model

import "time"

// EmailRecord is a single email address discovered during a crawl.
// One record is produced per distinct address per crawl session.
type EmailRecord struct {
	// Domain is the crawl target's host (and port, if any).
	Domain string `json:"domain"`

	// Email is the address exactly as it matched in the page text.
	Email string `json:"email"`

	// PageURL is the URL of the page the address was first seen on.
	PageURL string `json:"page_url"`

	// SessionID identifies the crawl session that found the address.
	SessionID string `json:"session_id"`

	// FoundAt is when the address was first seen.
	FoundAt time.Time `json:"found_at"`
}

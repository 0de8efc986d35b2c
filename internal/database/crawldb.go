package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mailcrawl/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "mailcrawl.db"

// CrawlDB provides SQLite-based storage for crawl sessions and emails.
//
// Design decision: We use a single database file for all domains rather
// than one file per domain. The emails and history subcommands then need
// only the domain name, and a backup is one file.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping ErrNotFound is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS crawl_sessions (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		urls_visited INTEGER DEFAULT 0,
		emails_found INTEGER DEFAULT 0,
		fetch_failures INTEGER DEFAULT 0,
		interrupted INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_domain ON crawl_sessions(domain);

	-- Emails are unique per domain across all sessions
	CREATE TABLE IF NOT EXISTS emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		email TEXT NOT NULL,
		page_url TEXT NOT NULL,
		session_id TEXT NOT NULL,
		found_at TEXT NOT NULL,
		UNIQUE(domain, email)
	);

	CREATE INDEX IF NOT EXISTS idx_emails_domain ON emails(domain);

	-- Visited URLs in the order each session fetched them
	CREATE TABLE IF NOT EXISTS visited (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY(session_id, position)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SessionRecord is a stored crawl session.
type SessionRecord struct {
	ID            string
	Domain        string
	Seed          string
	StartedAt     time.Time
	FinishedAt    time.Time
	URLsVisited   int
	EmailsFound   int
	FetchFailures int
	Interrupted   bool
}

// BeginSession records the start of a crawl session.
// Calling it again for the same session ID is a no-op.
func (cdb *CrawlDB) BeginSession(ctx context.Context, id, domain, seed string, startedAt time.Time) error {
	query := `
	INSERT INTO crawl_sessions (id, domain, seed, started_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`

	if _, err := cdb.db.ExecContext(ctx, query, id, domain, seed, formatTimestamp(startedAt)); err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}
	return nil
}

// InsertEmail stores an email address for a domain.
// It reports whether the address was new for the domain; an address already
// stored by an earlier session keeps its original page and session.
func (cdb *CrawlDB) InsertEmail(ctx context.Context, rec model.EmailRecord) (bool, error) {
	query := `
	INSERT INTO emails (domain, email, page_url, session_id, found_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(domain, email) DO NOTHING
	`

	result, err := cdb.db.ExecContext(ctx, query,
		rec.Domain,
		rec.Email,
		rec.PageURL,
		rec.SessionID,
		formatTimestamp(rec.FoundAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert email: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert email: %w", err)
	}
	return n > 0, nil
}

// FinishSession stores the final counters and the ordered visited list of a
// session in one transaction. The session row is created if BeginSession was
// never called, and otherwise overwritten with the values in stats. A
// previously stored visited list is replaced.
func (cdb *CrawlDB) FinishSession(ctx context.Context, stats *model.Stats) (err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := `
	INSERT INTO crawl_sessions (id, domain, seed, started_at, finished_at, urls_visited, emails_found, fetch_failures, interrupted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		seed = excluded.seed,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		urls_visited = excluded.urls_visited,
		emails_found = excluded.emails_found,
		fetch_failures = excluded.fetch_failures,
		interrupted = excluded.interrupted
	`
	if _, err = tx.ExecContext(ctx, upsert,
		stats.SessionID,
		stats.Domain,
		stats.Seed,
		formatTimestamp(stats.StartedAt),
		formatTimestamp(stats.FinishedAt),
		stats.URLsVisited,
		stats.EmailsFound,
		stats.FetchFailures,
		stats.Interrupted,
	); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM visited WHERE session_id = ?", stats.SessionID); err != nil {
		return fmt.Errorf("failed to clear visited urls: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO visited (session_id, position, url) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare visited insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range stats.Visited {
		if _, err = stmt.ExecContext(ctx, stats.SessionID, i, u); err != nil {
			return fmt.Errorf("failed to store visited url: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// ListEmails returns every email stored for a domain, oldest first.
func (cdb *CrawlDB) ListEmails(ctx context.Context, domain string) ([]model.EmailRecord, error) {
	query := `
	SELECT domain, email, page_url, session_id, found_at
	FROM emails
	WHERE domain = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var results []model.EmailRecord
	for rows.Next() {
		var rec model.EmailRecord
		var foundAt string

		if err := rows.Scan(&rec.Domain, &rec.Email, &rec.PageURL, &rec.SessionID, &foundAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		rec.FoundAt = parseTimestamp(foundAt)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// ListSessions returns the crawl sessions recorded for a domain, newest first.
func (cdb *CrawlDB) ListSessions(ctx context.Context, domain string) ([]SessionRecord, error) {
	query := `
	SELECT id, domain, seed, started_at, finished_at, urls_visited, emails_found, fetch_failures, interrupted
	FROM crawl_sessions
	WHERE domain = ?
	ORDER BY started_at DESC, rowid DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Domain,
			&rec.Seed,
			&startedAt,
			&finishedAt,
			&rec.URLsVisited,
			&rec.EmailsFound,
			&rec.FetchFailures,
			&rec.Interrupted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		rec.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid {
			rec.FinishedAt = parseTimestamp(finishedAt.String)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// VisitedURLs returns the URLs a session visited, in fetch order.
func (cdb *CrawlDB) VisitedURLs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx,
		"SELECT url FROM visited WHERE session_id = ? ORDER BY position", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visited urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan visited url: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// timestampLayout is RFC 3339 with a fixed-width fraction. Stored times are
// UTC, so the text sorts lexically in ORDER BY.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Also parses timestampLayout
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

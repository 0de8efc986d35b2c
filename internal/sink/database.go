package sink

import (
	"context"
	"sync"

	"github.com/nao1215/mailcrawl/internal/database"
	"github.com/nao1215/mailcrawl/internal/model"
)

// DatabaseSink stores a crawl in the SQLite CrawlDB.
// The session row is created on the first email, and completed with the
// visited list and counters on Finalize.
type DatabaseSink struct {
	db *database.CrawlDB

	// ownsDB is true when Close should also close db.
	ownsDB bool

	mu      sync.Mutex
	started map[string]bool
}

// NewDatabaseSink wraps an open CrawlDB. Close leaves db open.
func NewDatabaseSink(db *database.CrawlDB) *DatabaseSink {
	return &DatabaseSink{db: db, started: make(map[string]bool)}
}

// OpenDatabaseSink opens the CrawlDB in dir and wraps it.
// Close also closes the database.
func OpenDatabaseSink(dir string) (*DatabaseSink, error) {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, err
	}
	s := NewDatabaseSink(db)
	s.ownsDB = true
	return s, nil
}

// AppendEmail stores the email. An address already stored for the domain by
// an earlier crawl is left untouched.
func (s *DatabaseSink) AppendEmail(ctx context.Context, rec model.EmailRecord) error {
	if err := s.beginOnce(ctx, rec); err != nil {
		return err
	}
	_, err := s.db.InsertEmail(ctx, rec)
	return err
}

func (s *DatabaseSink) beginOnce(ctx context.Context, rec model.EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started[rec.SessionID] {
		return nil
	}
	// The seed is not known here; FinishSession fills the row in.
	if err := s.db.BeginSession(ctx, rec.SessionID, rec.Domain, rec.PageURL, rec.FoundAt); err != nil {
		return err
	}
	s.started[rec.SessionID] = true
	return nil
}

// Finalize stores the session counters and visited URLs.
func (s *DatabaseSink) Finalize(ctx context.Context, stats *model.Stats) error {
	return s.db.FinishSession(ctx, stats)
}

// Close closes the database if the sink opened it.
func (s *DatabaseSink) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

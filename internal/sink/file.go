package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/mailcrawl/internal/model"
)

// FileSink writes emails to "<base>.csv" and visited URLs to "<base>.txt"
// inside a directory, where base is BaseName of the crawled domain.
//
// Design decision: The CSV file is opened in append mode and flushed after
// every row, so that the addresses found so far survive a crash and a
// re-crawl of the same domain adds to the previous results. The visited
// list is written once, at the end, and replaces any earlier one.
type FileSink struct {
	dir string

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewFileSink creates a FileSink writing into dir.
// Nothing is created on disk until the first write.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

// EmailsPath returns the CSV path used for domain.
func (s *FileSink) EmailsPath(domain string) string {
	return filepath.Join(s.dir, BaseName(domain)+".csv")
}

// VisitedPath returns the visited-URL list path used for domain.
func (s *FileSink) VisitedPath(domain string) string {
	return filepath.Join(s.dir, BaseName(domain)+".txt")
}

// AppendEmail appends one CSV row holding the email address.
func (s *FileSink) AppendEmail(_ context.Context, rec model.EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		if err := s.open(rec.Domain); err != nil {
			return err
		}
	}

	if err := s.writer.Write([]string{rec.Email}); err != nil {
		return fmt.Errorf("failed to write email: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush email: %w", err)
	}
	return nil
}

func (s *FileSink) open(domain string) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := s.EmailsPath(domain)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // path is built from a sanitized base name
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)
	return nil
}

// Finalize writes the visited URLs, one per line, replacing the file.
func (s *FileSink) Finalize(_ context.Context, stats *model.Stats) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := s.VisitedPath(stats.Domain)
	if err := os.WriteFile(path, []byte(strings.Join(stats.Visited, "\n")), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Close closes the CSV file if it was opened.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.writer = nil
	return err
}

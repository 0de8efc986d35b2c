package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/mailcrawl/internal/model"
)

func TestFileSink(t *testing.T) {
	t.Parallel()

	t.Run("writes emails and visited urls", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := NewFileSink(dir)
		ctx := context.Background()

		for _, e := range []string{"a@example.com", "b@example.com"} {
			if err := s.AppendEmail(ctx, model.EmailRecord{Domain: "example.com", Email: e}); err != nil {
				t.Fatalf("failed to append %s: %v", e, err)
			}
		}

		// Rows are flushed before Close.
		data, err := os.ReadFile(filepath.Join(dir, "example_com.csv"))
		if err != nil {
			t.Fatalf("failed to read csv: %v", err)
		}
		if string(data) != "a@example.com\nb@example.com\n" {
			t.Errorf("unexpected csv content: %q", data)
		}

		stats := &model.Stats{
			Domain:  "example.com",
			Visited: []string{"https://example.com/", "https://example.com/a"},
		}
		if err := s.Finalize(ctx, stats); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		data, err = os.ReadFile(s.VisitedPath("example.com"))
		if err != nil {
			t.Fatalf("failed to read visited list: %v", err)
		}
		if string(data) != "https://example.com/\nhttps://example.com/a" {
			t.Errorf("unexpected visited content: %q", data)
		}
	})

	t.Run("appends across runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx := context.Background()

		for _, e := range []string{"first@example.com", "second@example.com"} {
			s := NewFileSink(dir)
			if err := s.AppendEmail(ctx, model.EmailRecord{Domain: "example.com", Email: e}); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("failed to close: %v", err)
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, "example_com.csv"))
		if err != nil {
			t.Fatalf("failed to read csv: %v", err)
		}
		if string(data) != "first@example.com\nsecond@example.com\n" {
			t.Errorf("expected appended rows, got %q", data)
		}
	})

	t.Run("no email means no csv file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := NewFileSink(dir)

		if err := s.Finalize(context.Background(), &model.Stats{Domain: "a.test:8080"}); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		if _, err := os.Stat(s.EmailsPath("a.test:8080")); !os.IsNotExist(err) {
			t.Error("expected csv file not to exist")
		}
		data, err := os.ReadFile(filepath.Join(dir, "a_test_8080.txt"))
		if err != nil {
			t.Fatalf("expected visited file: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("expected empty visited file, got %q", data)
		}
	})

	t.Run("creates missing output directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out", "nested")
		s := NewFileSink(dir)
		defer s.Close()

		if err := s.AppendEmail(context.Background(), model.EmailRecord{Domain: "example.com", Email: "x@example.com"}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if _, err := os.Stat(s.EmailsPath("example.com")); err != nil {
			t.Errorf("expected csv file: %v", err)
		}
	})

	t.Run("unwritable directory fails", func(t *testing.T) {
		t.Parallel()

		// A regular file where the directory should be.
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatalf("failed to create blocker: %v", err)
		}

		s := NewFileSink(blocker)
		if err := s.AppendEmail(context.Background(), model.EmailRecord{Domain: "example.com", Email: "x@example.com"}); err == nil {
			t.Error("expected error writing under a file")
		}
		if err := s.Finalize(context.Background(), &model.Stats{Domain: "example.com"}); err == nil {
			t.Error("expected error finalizing under a file")
		}
	})
}

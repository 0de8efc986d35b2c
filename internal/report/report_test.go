package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/mailcrawl/internal/model"
)

// createTestStats creates statistics with sample data for testing.
func createTestStats() *model.Stats {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return &model.Stats{
		SessionID:     "0b0c7a52-1111-4222-8333-444455556666",
		Seed:          "https://example.com/",
		Domain:        "example.com",
		URLsVisited:   3,
		EmailsFound:   2,
		FetchFailures: 1,
		StartedAt:     start,
		FinishedAt:    start.Add(1500 * time.Millisecond),
		Visited:       []string{"https://example.com/", "https://example.com/contact", "https://example.com/down"},
		Emails:        []string{"info@example.com", "sales@example.com"},
	}
}

// TestConsoleReporter tests the live progress output.
func TestConsoleReporter(t *testing.T) {
	t.Parallel()

	t.Run("prints progress lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewConsoleReporter(&buf, WithColor(false))

		r.Banner()
		r.Crawl("https://example.com/")
		r.Email(1, "info@example.com")

		want := "WELCOME TO EMAIL CRAWLER\n" +
			"CRAWL : https://example.com/\n" +
			" 1 Email found info@example.com\n"
		if buf.String() != want {
			t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
		}
	})

	t.Run("prints summary with dump path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewConsoleReporter(&buf,
			WithColor(false),
			WithDumpPath(func(domain string) string { return domain + ".txt" }),
		)

		r.Done(createTestStats())

		want := "End of crawling for https://example.com/\n" +
			"Total urls visited 3\n" +
			"Total Emails found 2\n" +
			"Dumping processed urls to example.com.txt\n"
		if buf.String() != want {
			t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
		}
	})

	t.Run("warns about interrupted crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewConsoleReporter(&buf, WithColor(false))

		stats := createTestStats()
		stats.Interrupted = true
		r.Done(stats)

		if !strings.HasPrefix(buf.String(), "Crawl interrupted") {
			t.Errorf("expected interruption notice, got %q", buf.String())
		}
		if strings.Contains(buf.String(), "Dumping") {
			t.Error("expected no dump line without a dump path")
		}
	})

	t.Run("colored output contains escape codes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewConsoleReporter(&buf, WithColor(true))
		r.Crawl("https://example.com/")

		if !strings.Contains(buf.String(), "\x1b[") {
			t.Errorf("expected ANSI escape codes, got %q", buf.String())
		}
	})

	t.Run("concurrent lines are not interleaved", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewConsoleReporter(&buf, WithColor(false))

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Crawl("https://example.com/page")
			}()
		}
		wg.Wait()

		for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
			if line != "CRAWL : https://example.com/page" {
				t.Fatalf("unexpected line %q", line)
			}
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestStats())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected a non-zero byte count")
		}

		output := buf.String()
		for _, want := range []string{
			"# Email Crawl Report",
			"`https://example.com/`",
			"## Email Addresses",
			"`info@example.com`",
			"## Visited URLs",
			"```mermaid",
			"Fetch Outcomes",
			"✅ Complete",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("reports interruption", func(t *testing.T) {
		t.Parallel()

		stats := createTestStats()
		stats.Interrupted = true

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(stats); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Interrupted") {
			t.Error("expected interrupted status")
		}
	})

	t.Run("empty crawl", func(t *testing.T) {
		t.Parallel()

		stats := &model.Stats{Seed: "https://example.com/", Domain: "example.com"}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(stats); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No email addresses found.") {
			t.Error("expected empty email notice")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart for an empty crawl")
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.Write(createTestStats()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.Version != "v1.2.3" {
			t.Errorf("expected version, got %q", got.Version)
		}
		if got.DurationSeconds != 1.5 {
			t.Errorf("expected 1.5s duration, got %v", got.DurationSeconds)
		}
		if got.Stats.EmailsFound != 2 || len(got.Stats.Visited) != 3 {
			t.Errorf("unexpected stats: %+v", got.Stats)
		}
		if !strings.HasSuffix(buf.String(), "}\n") || strings.Contains(buf.String(), "\n  ") {
			t.Error("expected compact output with trailing newline")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestStats()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"stats\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})
}

// failingWriter always fails.
type failingWriter struct{ err error }

func (f failingWriter) Write(*model.Stats) (int, error) { return 0, f.err }

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewJSONWriter(&a), NewMarkdownWriter(&b))

		n, err := m.Write(createTestStats())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to produce output")
		}
		if n < a.Len() {
			t.Errorf("expected total byte count, got %d", n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		var buf bytes.Buffer
		m := NewMultiWriter(failingWriter{err: boom}, NewJSONWriter(&buf))

		if _, err := m.Write(createTestStats()); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if buf.Len() != 0 {
			t.Error("expected second writer to be skipped")
		}
	})
}

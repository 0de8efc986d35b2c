package report

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/nao1215/mailcrawl/internal/model"
)

// Banner is printed when the crawl command starts.
const Banner = "WELCOME TO EMAIL CRAWLER"

// ConsoleReporter prints crawl progress to a terminal:
//
//	CRAWL : https://example.com/
//	 1 Email found info@example.com
//
// and a short summary when the crawl ends. It is safe for concurrent use.
//
// Design decision: Colors come from fatih/color, which turns itself off
// when stdout is not a terminal, so redirected output stays plain text.
type ConsoleReporter struct {
	baseWriter

	mu sync.Mutex

	crawl   *color.Color
	email   *color.Color
	summary *color.Color
	warn    *color.Color

	// dumpPath maps a domain to the visited-URL file, if one is written.
	dumpPath func(domain string) string
}

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithColor forces colored output on or off.
func WithColor(enabled bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		for _, c := range []*color.Color{r.crawl, r.email, r.summary, r.warn} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// WithDumpPath makes Done announce the file the visited URLs went to.
func WithDumpPath(fn func(domain string) string) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.dumpPath = fn
	}
}

// NewConsoleReporter creates a ConsoleReporter writing to output.
func NewConsoleReporter(output io.Writer, opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{
		baseWriter: newBaseWriter(output),
		crawl:      color.New(color.FgCyan),
		email:      color.New(color.FgGreen, color.Bold),
		summary:    color.New(color.Bold),
		warn:       color.New(color.FgYellow),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Banner prints the welcome banner.
func (r *ConsoleReporter) Banner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.summary.Fprintln(r.output, Banner)
}

// Crawl prints the URL about to be fetched.
func (r *ConsoleReporter) Crawl(pageURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.crawl.Fprintf(r.output, "CRAWL : %s\n", pageURL)
}

// Email prints a newly found address with the running count.
func (r *ConsoleReporter) Email(count int, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.email.Fprintf(r.output, " %d Email found %s\n", count, email)
}

// Done prints the end-of-crawl summary.
func (r *ConsoleReporter) Done(stats *model.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats.Interrupted {
		_, _ = r.warn.Fprintln(r.output, "Crawl interrupted, results are partial")
	}
	_, _ = r.summary.Fprintf(r.output, "End of crawling for %s\n", stats.Seed)
	_, _ = r.summary.Fprintf(r.output, "Total urls visited %d\n", stats.URLsVisited)
	_, _ = r.summary.Fprintf(r.output, "Total Emails found %d\n", stats.EmailsFound)
	if r.dumpPath != nil {
		_, _ = r.summary.Fprintf(r.output, "Dumping processed urls to %s\n", r.dumpPath(stats.Domain))
	}
}

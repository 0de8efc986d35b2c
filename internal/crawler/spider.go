package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/mailcrawl/internal/extract"
	"github.com/nao1215/mailcrawl/internal/fetch"
	"github.com/nao1215/mailcrawl/internal/metrics"
	"github.com/nao1215/mailcrawl/internal/model"
	"github.com/nao1215/mailcrawl/internal/sink"
	"github.com/nao1215/mailcrawl/internal/urlfilter"
)

// Reporter receives progress events from a crawl.
// Implementations must be safe for concurrent use when more than one worker
// runs.
type Reporter interface {
	// Crawl is called before a URL is fetched.
	Crawl(pageURL string)

	// Email is called for every newly recorded address. count is the number
	// of addresses recorded so far, this one included.
	Email(count int, email string)

	// Done is called once with the final statistics after the sink was
	// finalized successfully.
	Done(stats *model.Stats)
}

type nopReporter struct{}

func (nopReporter) Crawl(string)      {}
func (nopReporter) Email(int, string) {}
func (nopReporter) Done(*model.Stats) {}

// Spider crawls one website for email addresses.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// fetcher retrieves pages. It owns timeouts and retries.
	fetcher fetch.Fetcher

	// sink receives emails as they are found and the final statistics.
	sink sink.Sink

	// workers is the number of concurrent fetch loops.
	workers int

	// extensions overrides the filter's garbage-extension denylist.
	// nil keeps the default list.
	extensions []string

	// filterCacheSize is passed to the URL filter of each run.
	filterCacheSize int

	extractor *extract.Extractor
	reporter  Reporter
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithWorkers sets the number of concurrent workers. Values below one are
// treated as one.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithExtensions replaces the list of file extensions that are never
// crawled.
func WithExtensions(exts []string) SpiderOption {
	return func(s *Spider) {
		s.extensions = exts
	}
}

// WithFilterCacheSize sets how many link decisions the URL filter memoizes.
func WithFilterCacheSize(n int) SpiderOption {
	return func(s *Spider) {
		s.filterCacheSize = n
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) SpiderOption {
	return func(s *Spider) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) SpiderOption {
	return func(s *Spider) {
		s.metrics = m
	}
}

// WithExtractor replaces the email extractor.
func WithExtractor(e *extract.Extractor) SpiderOption {
	return func(s *Spider) {
		if e != nil {
			s.extractor = e
		}
	}
}

// NewSpider creates a Spider that fetches with fetcher and writes to sink.
//
// Design decision: We require an external fetcher and sink because:
//  1. Proxy, timeout and retry configuration belong to the fetch package
//  2. The CLI decides where results go (files, SQLite, Redis)
//  3. Tests can replace both without a network or a disk
func NewSpider(fetcher fetch.Fetcher, out sink.Sink, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:         fetcher,
		sink:            out,
		workers:         1,
		filterCacheSize: urlfilter.DefaultCacheSize,
		extractor:       extract.New(),
		reporter:        nopReporter{},
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run crawls the site of seed until no same-site link is left to fetch.
//
// The returned statistics are valid whenever the seed was accepted, also
// when an error is returned. Cancelling ctx stops the crawl early: in-flight
// fetches are abandoned, the sink is still finalized with what was visited,
// and Run returns the statistics with Interrupted set and a nil error.
// Errors from the sink are fatal and returned.
func (s *Spider) Run(ctx context.Context, seed string) (*model.Stats, error) {
	target, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}

	filterOpts := []urlfilter.Option{urlfilter.WithCacheSize(s.filterCacheSize)}
	if s.extensions != nil {
		filterOpts = append(filterOpts, urlfilter.WithExtensions(s.extensions))
	}
	filter := urlfilter.New(target, filterOpts...)

	sess := newSession(uuid.NewString(), target.String(), target.Host, s.now())
	s.metrics.SetFrontier(1)

	logger := s.logger.With("session", sess.id, "domain", sess.domain)
	logger.Info("crawl started", "seed", sess.seed, "workers", s.workers)

	// Workers blocked waiting for work must notice cancellation.
	stop := context.AfterFunc(ctx, sess.wake)
	defer stop()

	var g errgroup.Group
	for range s.workers {
		g.Go(func() error {
			return s.work(ctx, sess, filter, logger)
		})
	}
	fatalErr := g.Wait()

	stats := sess.snapshot(s.now())

	// Finalize even after cancellation so that partial results are kept.
	finalizeErr := s.sink.Finalize(context.WithoutCancel(ctx), stats)
	if finalizeErr != nil {
		finalizeErr = fmt.Errorf("failed to finalize results: %w", finalizeErr)
	}

	if err := errors.Join(fatalErr, finalizeErr); err != nil {
		logger.Error("crawl failed", "error", err)
		return stats, err
	}

	logger.Info("crawl finished",
		"visited", stats.URLsVisited,
		"emails", stats.EmailsFound,
		"failures", stats.FetchFailures,
		"interrupted", stats.Interrupted,
	)
	s.reporter.Done(stats)
	return stats, nil
}

// work is one worker's fetch loop. It returns the sink error that stopped
// the crawl, after recording it on the session so the other workers stop.
func (s *Spider) work(ctx context.Context, sess *session, filter *urlfilter.Filter, logger *slog.Logger) error {
	for {
		pageURL, ok := sess.next(ctx)
		if !ok {
			return nil
		}

		s.reporter.Crawl(pageURL)

		start := time.Now()
		page, err := s.fetcher.Fetch(ctx, pageURL)
		if ctx.Err() != nil {
			sess.abandon(pageURL)
			return nil
		}

		if err != nil {
			s.metrics.ObserveFetch(metrics.OutcomeFailed, time.Since(start))
			logger.Warn("fetch failed", "url", pageURL, "error", err)
			s.metrics.SetFrontier(sess.complete(pageURL, nil, true))
			continue
		}

		// A fetcher may follow redirects. A page served by another site is
		// neither mined nor followed.
		base := pageURL
		if page.FinalURL != "" {
			base = page.FinalURL
		}
		if base != pageURL && !filter.SameAuthority(base) {
			s.metrics.ObserveFetch(metrics.OutcomeOffSite, time.Since(start))
			logger.Warn("redirected off site", "url", pageURL, "final_url", base)
			s.metrics.SetFrontier(sess.complete(pageURL, nil, false))
			continue
		}

		// Error pages still carry a body and links, so they are mined too.
		outcome := metrics.OutcomeOK
		if !page.IsSuccess() {
			outcome = metrics.OutcomeHTTPError
		}
		s.metrics.ObserveFetch(outcome, time.Since(start))
		logger.Debug("fetched page",
			"url", pageURL,
			"status", page.StatusCode,
			"attempts", page.Attempts,
			"links", len(page.Links),
		)

		if err := s.recordEmails(ctx, sess, pageURL, page.Body); err != nil {
			sess.complete(pageURL, nil, false)
			sess.fail(err)
			return err
		}

		links := filter.Filter(base, page.Links)
		s.metrics.SetFrontier(sess.complete(pageURL, links, false))
	}
}

// recordEmails extracts the addresses in body and hands every address new
// to this crawl to the sink.
func (s *Spider) recordEmails(ctx context.Context, sess *session, pageURL, body string) error {
	emails, _ := s.extractor.Extract(body)

	for _, email := range emails {
		count, isNew := sess.recordEmail(email)
		if !isNew {
			continue
		}

		rec := model.EmailRecord{
			Domain:    sess.domain,
			Email:     email,
			PageURL:   pageURL,
			SessionID: sess.id,
			FoundAt:   s.now(),
		}
		// An address already counted must reach the sink even if the crawl
		// is being cancelled.
		if err := s.sink.AppendEmail(context.WithoutCancel(ctx), rec); err != nil {
			return fmt.Errorf("failed to store email %s: %w", email, err)
		}

		s.metrics.IncEmails()
		s.reporter.Email(count, email)
	}
	return nil
}

// parseSeed validates seed and returns it in canonical form.
func parseSeed(seed string) (*url.URL, error) {
	trimmed := strings.TrimSpace(seed)
	if trimmed == "" {
		return nil, &InvalidSeedError{Seed: seed, Reason: "empty"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &InvalidSeedError{Seed: seed, Reason: "cannot be parsed", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &InvalidSeedError{Seed: seed, Reason: "must be an absolute URL with scheme and host"}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, &InvalidSeedError{Seed: seed, Reason: "scheme must be http or https"}
	}

	urlfilter.Canonicalize(u)
	return u, nil
}

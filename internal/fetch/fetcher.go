package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"

	"github.com/nao1215/mailcrawl/internal/model"
)

// Default fetcher settings.
const (
	// DefaultUserAgent is a desktop browser User-Agent. Many small sites serve
	// a stripped page, or nothing, to clients that announce themselves as bots.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries gives five attempts in total.
	DefaultMaxRetries = 4

	// DefaultBaseDelay is the first backoff delay.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultMaxDelay caps the backoff delay.
	DefaultMaxDelay = 8 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// maxRedirects bounds a redirect chain.
	maxRedirects = 10
)

// acceptHeader prefers HTML but accepts anything, like a browser navigation.
const acceptHeader = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"

// Fetcher retrieves a single page.
// Implementations apply their own timeout and retry policy and return either
// a page or a terminal error.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	// client performs the requests. Built from the options unless one is
	// injected with WithHTTPClient.
	client *http.Client

	userAgent   string
	timeout     time.Duration
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxBodySize int64

	// proxyAddress is an optional SOCKS5 proxy in "host:port" form.
	proxyAddress string

	logger *slog.Logger

	executor failsafe.Executor[*response]
}

// response is the outcome of one attempt. The body is read and the
// connection released inside the attempt, so retries never leak bodies.
type response struct {
	status      int
	contentType string
	body        []byte

	// finalURL is the URL of the request that produced the response.
	finalURL string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithMaxRetries sets how many times a failed request is retried.
// Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(f *HTTPFetcher) {
		f.maxRetries = max(n, 0)
	}
}

// WithBackoff sets the first and the maximum retry delay.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.baseDelay = base
		f.maxDelay = maxDelay
	}
}

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHTTPClient injects the HTTP client. Timeout and proxy options are
// ignored when a client is injected.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithProxy routes all requests through a SOCKS5 proxy at addr ("host:port").
func WithProxy(addr string) Option {
	return func(f *HTTPFetcher) {
		f.proxyAddress = addr
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
// It fails only when the proxy configuration is unusable.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	if f.client == nil {
		client, err := f.newHTTPClient()
		if err != nil {
			return nil, err
		}
		f.client = client
	}

	f.executor = failsafe.With[*response](f.newRetryPolicy())

	return f, nil
}

// newHTTPClient builds the default client: no cookie jar, bounded
// same-site redirects, optional SOCKS5 dialing.
func (f *HTTPFetcher) newHTTPClient() (*http.Client, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("unexpected default transport type")
	}
	transport = transport.Clone()

	if f.proxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", f.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		transport.Proxy = nil
	}

	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: checkRedirect,
	}, nil
}

// checkRedirect follows a redirect only while it stays on the scheme and
// host of the original request. Otherwise the redirect response itself is
// returned, so a page on the crawled site can never pull in another site.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return http.ErrUseLastResponse
	}
	if !sameAuthority(req.URL, via[0].URL) {
		return http.ErrUseLastResponse
	}
	return nil
}

func sameAuthority(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// newRetryPolicy builds the bounded exponential backoff policy.
func (f *HTTPFetcher) newRetryPolicy() retrypolicy.RetryPolicy[*response] {
	base := f.baseDelay
	if base <= 0 {
		base = time.Millisecond
	}

	builder := retrypolicy.NewBuilder[*response]().
		HandleIf(shouldRetry).
		WithMaxRetries(f.maxRetries).
		ReturnLastFailure()

	if f.maxDelay > base {
		builder = builder.WithBackoff(base, f.maxDelay).WithJitterFactor(0.1)
	} else {
		builder = builder.WithDelay(base)
	}

	return builder.Build()
}

// shouldRetry retries transport failures, server errors and rate limiting.
// Cancellation of the caller's context is never retried.
func shouldRetry(resp *response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return true
	}
	return retryableStatus(resp.status)
}

func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// Fetch retrieves pageURL, retrying per the configured policy.
// It returns a *FetchError when every attempt failed.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	var attempts atomic.Int32

	resp, err := f.executor.WithContext(ctx).Get(func() (*response, error) {
		n := attempts.Add(1)
		if n > 1 {
			f.logger.Debug("retrying fetch", "url", pageURL, "attempt", n)
		}
		return f.do(ctx, pageURL)
	})

	tries := int(attempts.Load())
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: err.Error(), Attempts: tries, Err: err}
	}
	if resp == nil {
		return nil, &FetchError{URL: pageURL, Reason: "no response", Attempts: tries, Err: io.ErrUnexpectedEOF}
	}
	if retryableStatus(resp.status) {
		return nil, &FetchError{
			URL:      pageURL,
			Reason:   fmt.Sprintf("status %d", resp.status),
			Attempts: tries,
			Err:      fmt.Errorf("%w: %d", ErrRetryableStatus, resp.status),
		}
	}

	return f.buildPage(pageURL, resp, tries), nil
}

// do performs a single attempt.
func (f *HTTPFetcher) do(ctx context.Context, pageURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
		finalURL:    finalURL,
	}, nil
}

// buildPage decodes the body and harvests links from HTML documents.
func (f *HTTPFetcher) buildPage(pageURL string, resp *response, attempts int) *model.Page {
	page := &model.Page{
		URL:         pageURL,
		FinalURL:    resp.finalURL,
		StatusCode:  resp.status,
		ContentType: resp.contentType,
		Body:        decodeBody(resp.body, resp.contentType),
		Links:       []string{},
		Attempts:    attempts,
	}

	if !isHTML(resp.contentType) {
		return page
	}

	doc, err := parseDocument(strings.NewReader(page.Body))
	if err != nil {
		f.logger.Debug("failed to parse HTML", "url", pageURL, "error", err)
		return page
	}
	page.Title = doc.title
	page.Links = doc.links

	return page
}

// decodeBody converts the body to UTF-8 using the declared or sniffed
// charset. Undecodable bodies are returned as is.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

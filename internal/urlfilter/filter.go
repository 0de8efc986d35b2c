package urlfilter

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of accept/reject decisions memoized by a
// Filter. Navigation links repeat on almost every page of a site, so a small
// cache removes most of the repeated suffix scans.
const DefaultCacheSize = 4096

// Filter decides which discovered links are eligible for the frontier.
// A Filter is bound to one crawl target and is safe for concurrent use.
type Filter struct {
	// scheme and host make up the target authority. host includes the port
	// when the target URL has one.
	scheme string
	host   string

	// extensions is the lowercased garbage-extension denylist.
	extensions []string

	// decisions memoizes accept results keyed by canonical URL.
	// nil when caching is disabled.
	decisions *lru.Cache[string, bool]

	cacheSize int
}

// Option configures a Filter.
type Option func(*Filter)

// WithExtensions replaces the garbage-extension denylist.
// Entries are matched case-insensitively; a missing leading dot is added.
func WithExtensions(exts []string) Option {
	return func(f *Filter) {
		f.extensions = normalizeExtensions(exts)
	}
}

// WithCacheSize sets the size of the decision cache. Zero or a negative
// value disables the cache.
func WithCacheSize(size int) Option {
	return func(f *Filter) {
		f.cacheSize = size
	}
}

// New creates a Filter for the authority of target.
func New(target *url.URL, opts ...Option) *Filter {
	f := &Filter{
		scheme:     strings.ToLower(target.Scheme),
		host:       strings.ToLower(target.Host),
		extensions: normalizeExtensions(DefaultExtensions),
		cacheSize:  DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		f.decisions, _ = lru.New[string, bool](f.cacheSize) //nolint:errcheck
	}

	return f
}

// Authority returns the target authority as "scheme://host[:port]".
func (f *Filter) Authority() string {
	return f.scheme + "://" + f.host
}

// SameAuthority reports whether rawURL has the target's scheme and host.
func (f *Filter) SameAuthority(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.ToLower(u.Scheme) == f.scheme && strings.ToLower(u.Host) == f.host
}

// Filter resolves every raw link against pageURL and returns the canonical
// URLs that may be crawled, without duplicates and in first-seen order.
// It returns nil when pageURL itself cannot be parsed.
func (f *Filter) Filter(pageURL string, raw []string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	accepted := make([]string, 0, len(raw))

	for _, href := range raw {
		resolved, ok := Resolve(base, href)
		if !ok {
			continue
		}

		link := resolved.String()
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		if f.accept(link, resolved) {
			accepted = append(accepted, link)
		}
	}

	return accepted
}

// Accept reports whether a canonical URL belongs to the target authority and
// does not have a garbage extension.
func (f *Filter) Accept(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	Canonicalize(u)
	return f.accept(u.String(), u)
}

func (f *Filter) accept(key string, u *url.URL) bool {
	if f.decisions != nil {
		if ok, hit := f.decisions.Get(key); hit {
			return ok
		}
	}

	ok := u.Scheme == f.scheme && u.Host == f.host && !f.hasGarbageExtension(u.Path)

	if f.decisions != nil {
		f.decisions.Add(key, ok)
	}
	return ok
}

// hasGarbageExtension checks the path against the denylist, both as is and
// with a trailing slash appended to each extension.
func (f *Filter) hasGarbageExtension(path string) bool {
	path = strings.ToLower(path)
	for _, ext := range f.extensions {
		if strings.HasSuffix(path, ext) || strings.HasSuffix(path, ext+"/") {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

package extract

import (
	"regexp"
	"strings"
)

// emailPattern matches local@domain.tld where the local part is letters,
// digits and "_.+-", the domain label is letters, digits and "-", and the
// remainder is one or more "." followed by letters, digits, "-" or ".".
var emailPattern = regexp.MustCompile(`(?i)[a-z0-9_.+\-]+@[a-z0-9\-]+\.[a-z0-9\-.]+`)

// DefaultRejectSuffixes are match suffixes that indicate an image file name
// rather than an address, e.g. "icon@2x.png".
var DefaultRejectSuffixes = []string{"jpg", "jpeg", "png"}

// Extractor scans text for email addresses.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	pattern        *regexp.Regexp
	rejectSuffixes []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRejectSuffixes replaces the suffix heuristic.
// The comparison is an exact, case-sensitive suffix match.
func WithRejectSuffixes(suffixes []string) Option {
	return func(e *Extractor) {
		e.rejectSuffixes = suffixes
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		pattern:        emailPattern,
		rejectSuffixes: DefaultRejectSuffixes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the distinct candidate addresses in text, in the order they
// first appear, with suffix-rejected matches removed. matched reports whether
// anything email-shaped was found before the suffix filter was applied.
func (e *Extractor) Extract(text string) (emails []string, matched bool) {
	matches := e.pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{}, false
	}

	seen := make(map[string]struct{}, len(matches))
	emails = make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}

		if e.rejected(m) {
			continue
		}
		emails = append(emails, m)
	}

	return emails, true
}

func (e *Extractor) rejected(candidate string) bool {
	for _, suffix := range e.rejectSuffixes {
		if strings.HasSuffix(candidate, suffix) {
			return true
		}
	}
	return false
}

var defaultExtractor = New()

// Emails extracts addresses from text with the default Extractor.
func Emails(text string) ([]string, bool) {
	return defaultExtractor.Extract(text)
}

package urlfilter

import (
	"net/url"
	"strings"
)

// skippedPrefixes are href schemes that never lead to a crawlable page.
var skippedPrefixes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Resolve resolves href against base and returns the canonical absolute URL.
// The second return value is false for empty or non-navigational hrefs and
// for hrefs that do not parse.
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return nil, false
	}

	lower := strings.ToLower(href)
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return nil, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}

	resolved := base.ResolveReference(ref)
	Canonicalize(resolved)
	return resolved, true
}

// Canonicalize rewrites u in place into the form used for frontier and
// visited-set membership.
func Canonicalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
}

// CanonicalString parses rawURL and returns its canonical string form.
func CanonicalString(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	Canonicalize(u)
	return u.String(), nil
}

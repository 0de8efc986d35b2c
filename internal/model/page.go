package model

// Page represents one fetched web page.
//
// Design decision: Links holds the raw href values exactly as they appear in
// the document. Resolution against the page URL and same-origin filtering are
// the URL filter's job, so the fetcher never needs to know the crawl target.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL the response came from. It differs from URL when
	// the fetcher followed a redirect.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the value of the Content-Type response header.
	ContentType string `json:"content_type"`

	// Title is the text of the <title> element. Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Body is the response body decoded to UTF-8.
	// Limited to the fetcher's maximum body size.
	Body string `json:"-"`

	// Links contains the raw href attribute of every <a> element.
	Links []string `json:"links,omitempty"`

	// Attempts is the number of requests needed to retrieve the page.
	Attempts int `json:"attempts"`
}

// IsSuccess reports whether the response had a 2xx status code.
func (p *Page) IsSuccess() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

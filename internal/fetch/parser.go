package fetch

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parsedDocument holds what the crawler needs from an HTML document.
type parsedDocument struct {
	title string
	links []string
}

// parseDocument extracts the title and the raw href of every <a> element.
//
// Design decision: We parse with golang.org/x/net/html and query the tree
// with goquery rather than scanning with a regex because:
//  1. The tokenizer copes with the malformed HTML common on the web
//  2. "a[href]" states exactly which attribute feeds the frontier
//  3. Entity-encoded hrefs ("&amp;") come back decoded
func parseDocument(r io.Reader) (*parsedDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := goquery.NewDocumentFromNode(root)
	result := &parsedDocument{
		title: strings.TrimSpace(doc.Find("title").First().Text()),
		links: make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			result.links = append(result.links, href)
		}
	})

	return result, nil
}

// isHTML reports whether a Content-Type value should be parsed for links.
// An empty value is treated as HTML, as browsers sniff it that way for the
// pages we care about.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripTags returns the text content of an HTML fragment, discarding markup.
// Used when a filter predicate needs to read the Content field as plain text.
// Malformed input is tolerated (net/html best-effort parses it); on a parse
// error the original string is returned unchanged.
func StripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

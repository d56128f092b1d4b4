package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/mmcdole/gofeed"
)

// Parse reads an RSS or Atom document from r and converts it into a Feed.
// It accepts whatever gofeed accepts, which auto-detects the underlying
// format, so the same function backs both the Feed node's HTTP fetch and the
// WebSub leaf node's push-body parse.
func Parse(r io.Reader) (*Feed, error) {
	fp := gofeed.NewParser()
	gf, err := fp.Parse(r)
	if err != nil {
		return nil, err
	}
	return fromGofeed(gf), nil
}

func fromGofeed(gf *gofeed.Feed) *Feed {
	f := &Feed{
		Title:    gf.Title,
		Subtitle: gf.Description,
		ID:       firstNonEmpty(gf.FeedLink, gf.Link),
	}
	if gf.UpdatedParsed != nil {
		f.Updated = *gf.UpdatedParsed
	} else {
		f.Updated = time.Now().UTC()
	}

	f.Entries = make([]Entry, 0, len(gf.Items))
	for _, it := range gf.Items {
		e := Entry{
			ID:      entryID(it),
			Title:   it.Title,
			Summary: it.Description,
		}
		if it.PublishedParsed != nil {
			e.Published = *it.PublishedParsed
		}
		if it.Content != "" {
			e.Content = &Content{Value: it.Content, Type: "html"}
		}
		if it.Link != "" {
			e.Links = append(e.Links, Link{Href: it.Link, Rel: "alternate"})
		}
		for _, enc := range it.Enclosures {
			e.Links = append(e.Links, Link{Href: enc.URL, Rel: "enclosure", Type: enc.Type})
		}
		f.Entries = append(f.Entries, e)
	}
	return f
}

// entryID derives a stable identifier for a feed item: its guid if present,
// its link otherwise, falling back to a content hash so every entry has a
// usable ID even against malformed upstream feeds.
func entryID(it *gofeed.Item) string {
	if it.GUID != "" {
		return it.GUID
	}
	if it.Link != "" {
		return it.Link
	}
	h := sha256.Sum256([]byte(it.Title + it.Description))
	return hex.EncodeToString(h[:8])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package feed

import (
	"encoding/xml"
	"time"
)

// atomFeed, atomEntry and friends mirror the subset of RFC 4287 this engine
// needs to publish a flow's terminal output. No library in the dependency
// set encodes Atom (gofeed only parses); the wire shape follows the field
// layout of a hand-written Atom struct rather than introducing a bespoke
// schema.
type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomText struct {
	Type string `xml:"type,attr,omitempty"`
	Body string `xml:",chardata"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Summary   *atomText  `xml:"summary,omitempty"`
	Content   *atomText  `xml:"content,omitempty"`
	Published string     `xml:"published,omitempty"`
	Updated   string     `xml:"updated"`
	Link      []atomLink `xml:"link,omitempty"`
}

type atomFeed struct {
	XMLName  xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	ID       string      `xml:"id"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Updated  string      `xml:"updated"`
	Entry    []atomEntry `xml:"entry"`
}

// EncodeAtom renders f as an Atom XML document, the format every successful
// GET /flow/:name response body uses.
func EncodeAtom(f *Feed) ([]byte, error) {
	af := atomFeed{
		ID:       f.ID,
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Updated:  formatTime(f.Updated),
	}
	af.Entry = make([]atomEntry, len(f.Entries))
	for i, e := range f.Entries {
		ae := atomEntry{
			ID:      e.ID,
			Title:   e.Title,
			Updated: formatTime(e.Published),
		}
		if e.Summary != "" {
			ae.Summary = &atomText{Type: "text", Body: e.Summary}
		}
		if e.Content != nil {
			ae.Content = &atomText{Type: e.Content.Type, Body: e.Content.Value}
		}
		if !e.Published.IsZero() {
			ae.Published = formatTime(e.Published)
		}
		for _, l := range e.Links {
			ae.Link = append(ae.Link, atomLink{Href: l.Href, Rel: l.Rel, Type: l.Type})
		}
		af.Entry[i] = ae
	}

	out, err := xml.MarshalIndent(af, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format(time.RFC3339)
}

package pipeline

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sanitizer is the sanitization policy contract: deterministic and
// idempotent (Sanitize(Sanitize(x)) == Sanitize(x)).
type Sanitizer interface {
	Sanitize(html string) (string, error)
}

// htmlSanitizer strips scripts, event-handler attributes, and other unsafe
// constructs while preserving structural text content. No dedicated
// sanitization library is present in the dependency set (goquery wraps
// net/html + cascadia for selection, not policy), so the policy is built
// directly on goquery's DOM traversal, kept behind the Sanitizer interface
// so a future implementation can swap it without touching SanitiseNode.
type htmlSanitizer struct{}

var unsafeTags = []string{"script", "style", "iframe", "object", "embed", "form", "link", "meta"}

func (htmlSanitizer) Sanitize(input string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return "", err
	}

	doc.Find(strings.Join(unsafeTags, ", ")).Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		var drop []string
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") || strings.ToLower(attr.Key) == "style" {
				drop = append(drop, attr.Key)
			}
		}
		for _, key := range drop {
			s.RemoveAttr(key)
		}
	})

	body := doc.Find("body")
	html, err := body.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html), nil
}

// SanitiseNode rewrites a named field of every entry through a Sanitizer.
type SanitiseNode struct {
	field     string
	sanitizer Sanitizer
	input     *IO
	output    *IO
}

// NewSanitiseNode builds a Sanitise node for the given field, using the
// default goquery-based sanitizer.
func NewSanitiseNode(field string) *SanitiseNode {
	return &SanitiseNode{
		field:     field,
		sanitizer: htmlSanitizer{},
		input:     NewIO(DataKindFeed),
		output:    NewIO(DataKindFeed),
	}
}

func (n *SanitiseNode) Inputs() []*IO          { return []*IO{n.input} }
func (n *SanitiseNode) Outputs() []*IO         { return []*IO{n.output} }
func (n *SanitiseNode) InputTypes() []DataKind  { return []DataKind{DataKindFeed} }
func (n *SanitiseNode) OutputTypes() []DataKind { return []DataKind{DataKindFeed} }
func (n *SanitiseNode) SetInput(i int, io *IO)  { n.input = io }
func (n *SanitiseNode) SetOutput(i int, io *IO) { n.output = io }

func (n *SanitiseNode) Dirty() bool { return n.input.IsDirty() }

func (n *SanitiseNode) Run(ctx context.Context) error {
	d, ok := n.input.Get()
	if !ok || d.Feed == nil {
		return &InternalError{Msg: "sanitise node run without input"}
	}

	out := d.Feed.Clone()
	for i := range out.Entries {
		e := &out.Entries[i]
		clean, err := n.sanitizer.Sanitize(e.Field(n.field))
		if err != nil {
			return err
		}
		e.SetField(n.field, clean)
		if n.field == "Content" && e.Content != nil {
			e.Content.Type = "html"
		}
	}

	return n.output.Accept(FeedData(out))
}

package pipeline

import "flowrunner/internal/feed"

// DataKind identifies the type of value an IO slot carries.
type DataKind int

const (
	// DataKindFeed carries a parsed *feed.Feed.
	DataKindFeed DataKind = iota
	// DataKindWebSub carries the raw bytes of a WebSub push body, not yet parsed.
	DataKindWebSub
)

func (k DataKind) String() string {
	switch k {
	case DataKindFeed:
		return "Feed"
	case DataKindWebSub:
		return "WebSub"
	default:
		return "Unknown"
	}
}

// Data is a tagged value flowing between adjacent nodes.
type Data struct {
	Kind   DataKind
	Feed   *feed.Feed
	WebSub []byte
}

// FeedData wraps f as a Feed-kind Data value.
func FeedData(f *feed.Feed) Data { return Data{Kind: DataKindFeed, Feed: f} }

// WebSubData wraps raw bytes as a WebSub-kind Data value.
func WebSubData(b []byte) Data { return Data{Kind: DataKindWebSub, WebSub: b} }

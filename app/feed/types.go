package feed

import (
	"time"
)

// Item is one entry retrieved from a syndication source. Immutable once
// fetched.
type Item struct {
	Title       string
	Link        string
	RawSummary  string // summary markup exactly as delivered by the feed
	PublishedAt *time.Time
}

// Candidate is an Item that passed sanitization: markup-free text plus the
// first image reference found in the raw summary, if any.
type Candidate struct {
	Item
	Text     string
	ImageURL string
}

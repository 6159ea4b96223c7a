package database

import (
	"time"
)

// Publication is one published draft recorded in the local history.
type Publication struct {
	ID          int64
	Slug        string
	Title       string
	SourceLink  string
	PostID      int
	PublishedAt time.Time
}

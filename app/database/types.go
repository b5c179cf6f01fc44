package database

import (
	"time"
)

const (
	StatusRendered = "rendered"
	StatusNoOutput = "no_output"
	StatusFailed   = "failed"
)

type Feed struct {
	Name           string // Configuration feed identifier derived from filename
	URL            string // Feed location from configuration
	Title          string // Display name used on the index page
	File           string // Output file name
	LastStatus     string // rendered, no_output, failed or empty before the first run
	LastItemCount  int
	LastError      string
	LastRenderedAt *time.Time // Last run that wrote a page
	NextRenderAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Render is one attempt at rendering a feed.
type Render struct {
	ID        int64
	FeedName  string
	Status    string
	ItemCount int
	Kind      string // rss, atom, json or unknown
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

package feed

import (
	"bytes"

	"github.com/mmcdole/gofeed"
)

// DetectKind names the syndication format of data: "rss", "atom", "json"
// or "unknown". RSS here covers every RSS flavour, including 0.9x and 1.0.
func DetectKind(data []byte) string {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		return "rss"
	case gofeed.FeedTypeAtom:
		return "atom"
	case gofeed.FeedTypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

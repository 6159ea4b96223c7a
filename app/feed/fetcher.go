package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/vietyenltd/healthdesk/app/config"
)

// Fetcher retrieves configured feeds and normalizes their entries. A feed
// that fails to download or parse is logged and skipped; the run continues
// with whatever the remaining sources yield.
type Fetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
	timeout    time.Duration
	maxItems   int
}

func NewFetcher(httpClient *http.Client, settings config.Settings, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
		timeout:    settings.GetTimeout(),
		maxItems:   settings.MaxItems,
	}
}

// Run fetches all sources in configured order and returns at most maxItems
// entries per feed.
func (f *Fetcher) Run(ctx context.Context, sources []string) []Item {
	var items []Item

	for _, url := range sources {
		fetched, err := f.fetchFeed(ctx, url)
		if err != nil {
			slog.Warn("Failed to fetch feed, skipping", "url", url, "error", err)
			continue
		}
		items = append(items, fetched...)
	}

	slog.Info("Feeds fetched", "sources", len(sources), "items", len(items))
	return items
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := len(parsed.Items)
	if f.maxItems > 0 && limit > f.maxItems {
		limit = f.maxItems
	}

	items := make([]Item, 0, limit)
	for _, entry := range parsed.Items[:limit] {
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		items = append(items, Item{
			Title:       entry.Title,
			Link:        entry.Link,
			RawSummary:  cmp.Or(entry.Description, entry.Content),
			PublishedAt: entry.PublishedParsed,
		})
	}

	return items, nil
}

package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/vietyenltd/healthdesk/app/config"
)

// Extractor pulls readable article content from an entry's web page. Used
// when the feed summary is too short to compose from.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewExtractor(httpClient *http.Client, settings config.Settings, userAgent string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    settings.GetTimeout(),
	}
}

// Run downloads the page at link and returns the extracted article HTML.
func (e *Extractor) Run(ctx context.Context, link string) (string, error) {
	data, err := e.fetchPage(ctx, link)
	if err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", fmt.Errorf("page is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from page")
	}

	slog.Debug("Content extracted successfully",
		"link", link,
		"content_length", len(article.Content))

	return article.Content, nil
}

func (e *Extractor) fetchPage(ctx context.Context, link string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

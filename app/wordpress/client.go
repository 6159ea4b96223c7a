package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	maxAttempts  = 3
	maxRetryWait = 30 * time.Second
)

// Post is a draft-post payload for the WordPress REST API.
type Post struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	Excerpt       string `json:"excerpt,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Categories    []int  `json:"categories,omitempty"`
	Tags          []int  `json:"tags,omitempty"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// Client talks to the WordPress REST API with an application password.
// Idempotent calls retry transient failures with backoff; post creation is
// attempted exactly once — duplicate protection lives in the dedup
// pre-check, not in retries.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	userAgent   string
	httpClient  *http.Client
}

func NewClient(httpClient *http.Client, baseURL, username, appPassword, userAgent string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		userAgent:   userAgent,
		httpClient:  httpClient,
	}
}

// EnsureTags resolves tag names to IDs, creating missing tags. A tag that
// cannot be resolved is logged and skipped; publishing proceeds with the
// rest.
func (c *Client) EnsureTags(ctx context.Context, names []string) []int {
	var ids []int
	for _, name := range names {
		id, err := c.ensureTag(ctx, name)
		if err != nil {
			slog.Warn("Failed to resolve tag, skipping", "tag", name, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) ensureTag(ctx context.Context, name string) (int, error) {
	query := url.Values{"search": {name}, "per_page": {"1"}}
	var found []struct {
		ID int `json:"id"`
	}
	if err := c.getJSON(ctx, "/wp-json/wp/v2/tags?"+query.Encode(), &found); err != nil {
		return 0, err
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := c.postJSON(ctx, "/wp-json/wp/v2/tags", map[string]string{"name": name}, &created); err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}
	return created.ID, nil
}

// SlugExists reports whether a post with the given slug already exists.
// Used as the dedup pre-check before any publish call.
func (c *Client) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := url.Values{"slug": {slug}, "per_page": {"1"}, "status": {"any"}}
	var found []struct {
		ID int `json:"id"`
	}
	if err := c.getJSON(ctx, "/wp-json/wp/v2/posts?"+query.Encode(), &found); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// UploadMediaFromURL downloads the image and sideloads it into the media
// library, returning the media ID.
func (c *Client) UploadMediaFromURL(ctx context.Context, imageURL string) (int, error) {
	data, contentType, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		return 0, err
	}

	filename := path.Base(imageURL)
	if i := strings.IndexByte(filename, '?'); i >= 0 {
		filename = filename[:i]
	}
	if filename == "" || filename == "." || filename == "/" {
		filename = "hero.jpg"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	req.Header.Set("Content-Type", contentType)
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("media upload failed: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("failed to decode media response: %w", err)
	}
	return created.ID, nil
}

// CreateDraft creates the post. Exactly one attempt, never retried.
func (c *Client) CreateDraft(ctx context.Context, post Post) (int, error) {
	var created struct {
		ID int `json:"id"`
	}
	if err := c.postJSON(ctx, "/wp-json/wp/v2/posts", post, &created); err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	return created.ID, nil
}

func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// getJSON performs an idempotent GET with bounded retry on transient
// failures.
func (c *Client) getJSON(ctx context.Context, apiPath string, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := waitRetry(ctx, attempt); err != nil {
				return err
			}
		}

		retryable, err := c.doJSON(ctx, http.MethodGet, apiPath, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return fmt.Errorf("retries exhausted: %w", lastErr)
}

// postJSON performs a single write attempt. Writes are never retried here;
// a retried create could duplicate the resource.
func (c *Client) postJSON(ctx context.Context, apiPath string, body, out any) error {
	_, err := c.doJSON(ctx, http.MethodPost, apiPath, body, out)
	return err
}

// doJSON performs one request. The bool result reports whether the failure
// class is transient (network error, 429, 5xx).
func (c *Client) doJSON(ctx context.Context, method, apiPath string, body, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, fmt.Errorf("transient API error: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("API error: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return false, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("User-Agent", c.userAgent)
}

func waitRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxRetryWait {
		delay = maxRetryWait
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func readErrorBody(r io.Reader) string {
	payload, _ := io.ReadAll(io.LimitReader(r, 1024))
	return strings.TrimSpace(string(payload))
}

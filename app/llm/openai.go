package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	maxAttempts  = 3
	maxRetryWait = 30 * time.Second
)

// OpenAIClient implements Completer backed by the OpenAI chat API.
type OpenAIClient struct {
	client openai.Client
}

var _ Completer = (*OpenAIClient)(nil)

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0), // retries handled here, with our own policy
		),
	}
}

// Complete issues one chat completion, retrying transient failures
// (network errors, 429, 5xx) with exponential backoff.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.System != "" {
		params.Messages = append([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
		}, params.Messages...)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if delay > maxRetryWait {
				delay = maxRetryWait
			}
			slog.Debug("Retrying completion", "attempt", attempt, "delay", delay.String())
			select {
			case <-ctx.Done():
				return "", Unavailable("canceled", ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			if isTransient(err) {
				continue
			}
			return "", Unavailable("request failed", err)
		}

		if len(resp.Choices) == 0 {
			return "", Unavailable("empty response", nil)
		}

		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", Unavailable("empty completion", nil)
		}

		return content, nil
	}

	return "", Unavailable("retries exhausted", lastErr)
}

func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Transport-level failures carry no status code.
	return true
}

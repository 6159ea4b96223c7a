package tasks

import (
	"context"

	"github.com/vietyenltd/healthdesk/app/wordpress"
)

// Publisher is the content-management boundary the publish task talks to.
// Satisfied by *wordpress.Client; faked in tests.
type Publisher interface {
	EnsureTags(ctx context.Context, names []string) []int
	SlugExists(ctx context.Context, slug string) (bool, error)
	UploadMediaFromURL(ctx context.Context, imageURL string) (int, error)
	CreateDraft(ctx context.Context, post wordpress.Post) (int, error)
}

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietyenltd/healthdesk/app/cfg"
	"github.com/vietyenltd/healthdesk/app/database"
	"github.com/vietyenltd/healthdesk/app/tasks"
)

type Handler struct {
	repo      database.PublicationRepository
	scheduler tasks.TaskSchedulerInterface
	newTask   func() tasks.TaskInterface
}

func NewHandler(repo database.PublicationRepository, scheduler tasks.TaskSchedulerInterface,
	newTask func() tasks.TaskInterface) *Handler {
	return &Handler{
		repo:      repo,
		scheduler: scheduler,
		newTask:   newTask,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if count, err := h.repo.GetPublicationCount(); err == nil {
		health["publications"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if count, err := h.repo.GetPublicationCount(); err == nil {
		stats["total_publications"] = count
	}

	recent, err := h.repo.RecentPublications(10)
	if err != nil {
		slog.Error("Database error", "operation", "recent_publications", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	publications := make([]map[string]interface{}, 0, len(recent))
	for _, p := range recent {
		publications = append(publications, map[string]interface{}{
			"slug":         p.Slug,
			"title":        p.Title,
			"source_link":  p.SourceLink,
			"post_id":      p.PostID,
			"published_at": p.PublishedAt.Format(time.RFC3339),
		})
	}
	stats["recent"] = publications

	c.JSON(http.StatusOK, stats)
}

// TriggerRun enqueues a pipeline run outside the regular schedule. The
// task itself still honors the daily cap and dedup checks.
func (h *Handler) TriggerRun(c *gin.Context) {
	if err := h.scheduler.EnqueueTask(h.newTask()); err != nil {
		slog.Error("Failed to enqueue manual run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not enqueue run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}

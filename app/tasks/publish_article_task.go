package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietyenltd/healthdesk/app/compose"
	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/database"
	"github.com/vietyenltd/healthdesk/app/feed"
	"github.com/vietyenltd/healthdesk/app/relevance"
	"github.com/vietyenltd/healthdesk/app/render"
	"github.com/vietyenltd/healthdesk/app/resolve"
	"github.com/vietyenltd/healthdesk/app/seo"
	"github.com/vietyenltd/healthdesk/app/wordpress"
)

// ItemSource yields feed entries for a run. Satisfied by *feed.Fetcher.
type ItemSource interface {
	Run(ctx context.Context, sources []string) []feed.Item
}

// ContentExtractor pulls full article HTML from an entry's page.
// Satisfied by *feed.Extractor; nil disables enrichment.
type ContentExtractor interface {
	Run(ctx context.Context, link string) (string, error)
}

// PublishArticleTask runs the whole pipeline once: fetch, gate, compose,
// derive metadata, render, deduplicate, publish one draft.
type PublishArticleTask struct {
	Task
	Conf      *config.Config
	source    ItemSource
	sanitizer *feed.Sanitizer
	extractor ContentExtractor
	gate      *relevance.Gate
	composer  *compose.Composer
	seoGen    *seo.Generator
	resolver  *resolve.Resolver
	renderer  *render.Renderer
	publisher Publisher
	repo      database.PublicationRepository

	Outcome Outcome
}

func NewPublishArticleTask(conf *config.Config, source ItemSource, sanitizer *feed.Sanitizer,
	extractor ContentExtractor, gate *relevance.Gate, composer *compose.Composer,
	seoGen *seo.Generator, resolver *resolve.Resolver, renderer *render.Renderer,
	publisher Publisher, repo database.PublicationRepository) *PublishArticleTask {
	return &PublishArticleTask{
		Task:      NewTask(TaskTypePublishArticle, 0),
		Conf:      conf,
		source:    source,
		sanitizer: sanitizer,
		extractor: extractor,
		gate:      gate,
		composer:  composer,
		seoGen:    seoGen,
		resolver:  resolver,
		renderer:  renderer,
		publisher: publisher,
		repo:      repo,
	}
}

func (t *PublishArticleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if capped, err := t.dailyCapReached(); err != nil {
		return err
	} else if capped {
		t.Outcome = OutcomeDailyCapHit
		slog.Info("Daily publication cap reached, skipping run")
		return nil
	}

	candidate, found := t.pickCandidate(ctx)
	if !found {
		t.Outcome = OutcomeNoCandidates
		slog.Info("No relevant feed items, nothing to publish")
		return nil
	}

	candidate = t.enrich(ctx, candidate)

	article := t.composer.Run(ctx, candidate)
	meta := t.seoGen.Run(article.Title, article.Body)

	if dup, err := t.isDuplicate(ctx, meta.Slug); err != nil {
		return err
	} else if dup {
		t.Outcome = OutcomeDuplicate
		slog.Info("Slug already published, skipping", "slug", meta.Slug)
		return nil
	}

	matchText := article.Title + " " + article.Body
	rule := t.resolver.LinkRule(matchText)
	images := t.resolver.Images(matchText, candidate.ImageURL)
	tip := t.composer.ExpertTip(ctx, article, rule)

	document := t.renderer.Run(article, images, tip, rule, meta)

	postID, err := t.publish(ctx, article, meta, document, images)
	if err != nil {
		return err
	}

	if err := t.repo.RecordPublication(database.Publication{
		Slug:       meta.Slug,
		Title:      article.Title,
		SourceLink: article.SourceLink,
		PostID:     postID,
	}); err != nil {
		slog.Warn("Failed to record publication locally", "slug", meta.Slug, "error", err)
	}

	t.Outcome = OutcomePublished
	slog.Info("Task completed",
		"type", "PublishArticle",
		"duration", t.GetDuration(),
		"post_id", postID,
		"slug", meta.Slug,
		"title", article.Title)

	return nil
}

func (t *PublishArticleTask) dailyCapReached() (bool, error) {
	now := time.Now().In(time.Local)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	count, err := t.repo.CountPublishedSince(startOfDay)
	if err != nil {
		return false, fmt.Errorf("failed to check daily cap: %w", err)
	}
	return count > 0, nil
}

// pickCandidate sanitizes fetched entries and returns the first one the
// relevance gate admits.
func (t *PublishArticleTask) pickCandidate(ctx context.Context) (feed.Candidate, bool) {
	items := t.source.Run(ctx, t.Conf.Sources)

	for _, item := range items {
		text, imageURL := t.sanitizer.Run(item.RawSummary)
		if text == "" {
			text = item.Title
		}

		ok, reason := t.gate.Run(ctx, item.Title, text)
		if !ok {
			slog.Debug("Item rejected", "title", item.Title, "reason", reason)
			continue
		}

		slog.Info("Item admitted", "title", item.Title, "reason", reason)
		return feed.Candidate{Item: item, Text: text, ImageURL: imageURL}, true
	}

	return feed.Candidate{}, false
}

// enrich replaces a too-short feed summary with readable content extracted
// from the source page. Any failure keeps the summary text.
func (t *PublishArticleTask) enrich(ctx context.Context, candidate feed.Candidate) feed.Candidate {
	if t.extractor == nil || !t.Conf.Settings.ExtractContent {
		return candidate
	}
	if len([]rune(candidate.Text)) >= t.Conf.Settings.MinSourceChars {
		return candidate
	}

	content, err := t.extractor.Run(ctx, candidate.Link)
	if err != nil {
		slog.Warn("Full-text extraction failed, keeping feed summary", "link", candidate.Link, "error", err)
		return candidate
	}

	text, imageURL := t.sanitizer.Run(content)
	if len(text) > len(candidate.Text) {
		candidate.Text = text
		if candidate.ImageURL == "" {
			candidate.ImageURL = imageURL
		}
	}

	return candidate
}

func (t *PublishArticleTask) isDuplicate(ctx context.Context, slug string) (bool, error) {
	local, err := t.repo.SlugPublished(slug)
	if err != nil {
		return false, fmt.Errorf("failed local dedup check: %w", err)
	}
	if local {
		return true, nil
	}

	remote, err := t.publisher.SlugExists(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("failed remote dedup check: %w", err)
	}
	return remote, nil
}

func (t *PublishArticleTask) publish(ctx context.Context, article compose.Article, meta seo.Metadata, document string, images []string) (int, error) {
	tagIDs := t.publisher.EnsureTags(ctx, t.Conf.Publishing.Tags)

	featuredMedia := 0
	if len(images) > 0 && strings.HasPrefix(images[0], "http") {
		mediaID, err := t.publisher.UploadMediaFromURL(ctx, images[0])
		if err != nil {
			slog.Warn("Hero upload failed, publishing without featured media", "image", images[0], "error", err)
		} else {
			featuredMedia = mediaID
		}
	}

	post := wordpress.Post{
		Title:         meta.Title,
		Content:       document,
		Status:        t.Conf.Publishing.PostStatus,
		Excerpt:       meta.Description,
		Slug:          meta.Slug,
		Tags:          tagIDs,
		FeaturedMedia: featuredMedia,
	}
	if t.Conf.Publishing.CategoryID != 0 {
		post.Categories = []int{t.Conf.Publishing.CategoryID}
	}

	postID, err := t.publisher.CreateDraft(ctx, post)
	if err != nil {
		return 0, fmt.Errorf("failed to create draft: %w", err)
	}

	return postID, nil
}

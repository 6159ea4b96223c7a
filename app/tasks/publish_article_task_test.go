package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
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

type fakeSource struct {
	items []feed.Item
}

func (f *fakeSource) Run(_ context.Context, _ []string) []feed.Item {
	return f.items
}

type fakeExtractor struct {
	content string
	err     error
	calls   int
}

func (f *fakeExtractor) Run(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeRepo struct {
	publishedSlugs map[string]bool
	countSince     int
	countErr       error
	recorded       []database.Publication
	recordErr      error
}

func (f *fakeRepo) SlugPublished(slug string) (bool, error) {
	return f.publishedSlugs[slug], nil
}

func (f *fakeRepo) CountPublishedSince(_ time.Time) (int, error) {
	return f.countSince, f.countErr
}

func (f *fakeRepo) RecordPublication(p database.Publication) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, p)
	return nil
}

func (f *fakeRepo) RecentPublications(_ int) ([]database.Publication, error) {
	return f.recorded, nil
}

func (f *fakeRepo) GetPublicationCount() (int, error) {
	return len(f.recorded), nil
}

type fakePublisher struct {
	remoteSlugs map[string]bool
	uploadErr   error
	createErr   error

	ensuredTags []string
	uploadedURL string
	created     []wordpress.Post
}

func (f *fakePublisher) EnsureTags(_ context.Context, names []string) []int {
	f.ensuredTags = append(f.ensuredTags, names...)
	ids := make([]int, len(names))
	for i := range names {
		ids[i] = 100 + i
	}
	return ids
}

func (f *fakePublisher) SlugExists(_ context.Context, slug string) (bool, error) {
	return f.remoteSlugs[slug], nil
}

func (f *fakePublisher) UploadMediaFromURL(_ context.Context, imageURL string) (int, error) {
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	f.uploadedURL = imageURL
	return 42, nil
}

func (f *fakePublisher) CreateDraft(_ context.Context, post wordpress.Post) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, post)
	return 101, nil
}

func pipelineConfig() *config.Config {
	return &config.Config{
		Sources:  []string{"https://suckhoedoisong.vn/rss/home.rss"},
		Keywords: []string{"khô mắt", "sức khỏe", "điều trị"},
		InternalLinks: []config.InternalLink{
			{
				Keywords: []string{"khô mắt"},
				URL:      "https://shop.example.com/nuoc-mat",
				Title:    "Nước mắt nhân tạo ABC",
			},
			{
				Keywords: []string{"mắt"},
				URL:      "https://shop.example.com/vitamin-a",
				Title:    "Vitamin A XYZ",
			},
		},
		Publishing: config.Publishing{
			CategoryID:     3,
			Tags:           []string{"sức khỏe", "khô mắt"},
			PostStatus:     "draft",
			DefaultHeroURL: "https://img.example.com/default.jpg",
			HeroCaption:    "Ảnh minh hoạ: Unsplash",
		},
		Brand: config.Brand{
			SiteName:      "VietYenLTD Health Desk",
			PublisherLogo: "https://img.example.com/logo.png",
		},
		Settings: config.Settings{
			MaxItems:       10,
			Timeout:        30,
			MinSourceChars: 400,
		},
	}
}

func newPipelineTask(conf *config.Config, source ItemSource, extractor ContentExtractor,
	publisher Publisher, repo database.PublicationRepository) *PublishArticleTask {
	return NewPublishArticleTask(
		conf,
		source,
		feed.NewSanitizer(),
		extractor,
		relevance.NewGate(conf, nil),
		compose.NewComposer(conf, nil),
		seo.NewGenerator(),
		resolve.NewResolver(conf),
		render.NewRenderer(conf),
		publisher,
		repo,
	)
}

func healthItem() feed.Item {
	return feed.Item{
		Title:      "Khô mắt ở người dùng máy tính",
		Link:       "https://news.example.com/kho-mat",
		RawSummary: "<p>Triệu chứng khô mắt thường gặp ở dân văn phòng. Nên chớp mắt thường xuyên và nghỉ màn hình mỗi 20 phút.</p>",
	}
}

func TestPublishArticleTask_PublishesDraft(t *testing.T) {
	repo := &fakeRepo{}
	publisher := &fakePublisher{}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomePublished {
		t.Fatalf("Expected outcome %q, got %q", OutcomePublished, task.Outcome)
	}

	if len(publisher.created) != 1 {
		t.Fatalf("Expected exactly one draft, got %d", len(publisher.created))
	}
	post := publisher.created[0]

	if post.Status != "draft" {
		t.Errorf("Expected draft status, got %q", post.Status)
	}
	if post.Slug != "kho-mat-o-nguoi-dung-may-tinh" {
		t.Errorf("Unexpected slug: %q", post.Slug)
	}
	if post.Title == "" || post.Excerpt == "" {
		t.Error("Expected SEO title and excerpt on the post")
	}
	if post.FeaturedMedia != 42 {
		t.Errorf("Expected the uploaded hero as featured media, got %d", post.FeaturedMedia)
	}
	if len(post.Categories) != 1 || post.Categories[0] != 3 {
		t.Errorf("Expected the configured category, got %v", post.Categories)
	}
	if len(post.Tags) != 2 {
		t.Errorf("Expected two resolved tag IDs, got %v", post.Tags)
	}

	doc := post.Content
	if !strings.Contains(doc, "https://img.example.com/default.jpg") {
		t.Error("Expected the default hero image in the document")
	}
	if !strings.Contains(doc, "Tóm tắt ngắn gọn") {
		t.Error("Expected the summary callout in the document")
	}
	if !strings.Contains(doc, "https://news.example.com/kho-mat") {
		t.Error("Expected the source link in the document")
	}
	if got := strings.Count(doc, "Nguồn bài gốc"); got != 1 {
		t.Errorf("Expected exactly one source reference, got %d", got)
	}
	if got := strings.Count(doc, "Miễn trừ trách nhiệm"); got != 1 {
		t.Errorf("Expected exactly one disclaimer, got %d", got)
	}

	if publisher.uploadedURL != "https://img.example.com/default.jpg" {
		t.Errorf("Expected the hero uploaded, got %q", publisher.uploadedURL)
	}

	if len(repo.recorded) != 1 {
		t.Fatalf("Expected the publication recorded locally, got %d", len(repo.recorded))
	}
	if repo.recorded[0].Slug != "kho-mat-o-nguoi-dung-may-tinh" || repo.recorded[0].PostID != 101 {
		t.Errorf("Unexpected recorded publication: %+v", repo.recorded[0])
	}
}

func TestPublishArticleTask_NoRelevantItems(t *testing.T) {
	publisher := &fakePublisher{}
	source := &fakeSource{items: []feed.Item{
		{Title: "Giá vàng hôm nay", Link: "https://news.example.com/vang", RawSummary: "<p>Thị trường biến động.</p>"},
		{Title: "Kết quả bóng đá", Link: "https://news.example.com/bong-da", RawSummary: "<p>Trận đấu tối qua.</p>"},
	}}
	task := newPipelineTask(pipelineConfig(), source, nil, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomeNoCandidates {
		t.Errorf("Expected outcome %q, got %q", OutcomeNoCandidates, task.Outcome)
	}
	if len(publisher.created) != 0 {
		t.Errorf("Expected no draft created, got %d", len(publisher.created))
	}
	if publisher.uploadedURL != "" {
		t.Error("Expected no media uploaded")
	}
}

func TestPublishArticleTask_OnlyFirstRuleEmbedded(t *testing.T) {
	publisher := &fakePublisher{}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	doc := publisher.created[0].Content
	if !strings.Contains(doc, "https://shop.example.com/nuoc-mat") {
		t.Error("Expected the first matching rule's URL in the document")
	}
	if strings.Contains(doc, "https://shop.example.com/vitamin-a") {
		t.Error("The second matching rule must not appear in the document")
	}
}

func TestPublishArticleTask_DailyCap(t *testing.T) {
	publisher := &fakePublisher{}
	source := &fakeSource{items: []feed.Item{healthItem()}}
	task := newPipelineTask(pipelineConfig(), source, nil, publisher, &fakeRepo{countSince: 1})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomeDailyCapHit {
		t.Errorf("Expected outcome %q, got %q", OutcomeDailyCapHit, task.Outcome)
	}
	if len(publisher.created) != 0 {
		t.Errorf("Expected no draft created under the cap, got %d", len(publisher.created))
	}
}

func TestPublishArticleTask_LocalDuplicateSkipped(t *testing.T) {
	publisher := &fakePublisher{}
	repo := &fakeRepo{publishedSlugs: map[string]bool{"kho-mat-o-nguoi-dung-may-tinh": true}}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomeDuplicate {
		t.Errorf("Expected outcome %q, got %q", OutcomeDuplicate, task.Outcome)
	}
	if len(publisher.created) != 0 {
		t.Errorf("Expected no draft for a known slug, got %d", len(publisher.created))
	}
}

func TestPublishArticleTask_RemoteDuplicateSkipped(t *testing.T) {
	publisher := &fakePublisher{remoteSlugs: map[string]bool{"kho-mat-o-nguoi-dung-may-tinh": true}}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomeDuplicate {
		t.Errorf("Expected outcome %q, got %q", OutcomeDuplicate, task.Outcome)
	}
	if len(publisher.created) != 0 {
		t.Errorf("Expected no draft for a remotely known slug, got %d", len(publisher.created))
	}
}

func TestPublishArticleTask_HeroUploadFailureTolerated(t *testing.T) {
	publisher := &fakePublisher{uploadErr: errors.New("media endpoint down")}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomePublished {
		t.Errorf("Expected publication despite upload failure, got %q", task.Outcome)
	}
	if len(publisher.created) != 1 {
		t.Fatalf("Expected the draft created, got %d", len(publisher.created))
	}
	if publisher.created[0].FeaturedMedia != 0 {
		t.Errorf("Expected no featured media after a failed upload, got %d", publisher.created[0].FeaturedMedia)
	}
}

func TestPublishArticleTask_CreateFailurePropagates(t *testing.T) {
	publisher := &fakePublisher{createErr: errors.New("service unavailable")}
	repo := &fakeRepo{}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, repo)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected an error when draft creation fails")
	}
	if task.Outcome == OutcomePublished {
		t.Error("A failed run must not report a published outcome")
	}
	if len(repo.recorded) != 0 {
		t.Errorf("Nothing must be recorded for a failed run, got %d", len(repo.recorded))
	}
}

func TestPublishArticleTask_EnrichesShortSummaries(t *testing.T) {
	conf := pipelineConfig()
	conf.Settings.ExtractContent = true

	extractor := &fakeExtractor{
		content: "<article><p>" + strings.Repeat("Nội dung đầy đủ từ trang nguồn về khô mắt. ", 20) + "</p></article>",
	}
	publisher := &fakePublisher{}
	task := newPipelineTask(conf, &fakeSource{items: []feed.Item{healthItem()}}, extractor, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if extractor.calls != 1 {
		t.Errorf("Expected one extraction for a short summary, got %d", extractor.calls)
	}
	if !strings.Contains(publisher.created[0].Content, "Nội dung đầy đủ từ trang nguồn") {
		t.Error("Expected the extracted content in the published document")
	}
}

func TestPublishArticleTask_ExtractionFailureKeepsSummary(t *testing.T) {
	conf := pipelineConfig()
	conf.Settings.ExtractContent = true

	extractor := &fakeExtractor{err: errors.New("page unreachable")}
	publisher := &fakePublisher{}
	task := newPipelineTask(conf, &fakeSource{items: []feed.Item{healthItem()}}, extractor, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Outcome != OutcomePublished {
		t.Errorf("Expected publication from the feed summary, got %q", task.Outcome)
	}
	if !strings.Contains(publisher.created[0].Content, "dân văn phòng") {
		t.Error("Expected the feed summary text in the published document")
	}
}

func TestPublishArticleTask_LongSummarySkipsExtraction(t *testing.T) {
	conf := pipelineConfig()
	conf.Settings.ExtractContent = true
	conf.Settings.MinSourceChars = 10

	extractor := &fakeExtractor{content: "<p>không dùng đến</p>"}
	publisher := &fakePublisher{}
	task := newPipelineTask(conf, &fakeSource{items: []feed.Item{healthItem()}}, extractor, publisher, &fakeRepo{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if extractor.calls != 0 {
		t.Errorf("Expected no extraction for a sufficient summary, got %d", extractor.calls)
	}
}

func TestPublishArticleTask_RecordFailureDoesNotFailRun(t *testing.T) {
	publisher := &fakePublisher{}
	repo := &fakeRepo{recordErr: errors.New("disk full")}
	task := newPipelineTask(pipelineConfig(), &fakeSource{items: []feed.Item{healthItem()}}, nil, publisher, repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected the run to succeed despite a history write failure, got %v", err)
	}
	if task.Outcome != OutcomePublished {
		t.Errorf("Expected outcome %q, got %q", OutcomePublished, task.Outcome)
	}
}

package compose

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/feed"
	"github.com/vietyenltd/healthdesk/app/llm"
)

const (
	composeInputLimit = 6000
	tipInputLimit     = 1200

	fallbackTipText = "Duy trì lối sống điều độ, theo dõi triệu chứng và ưu tiên chăm sóc tại nhà. " +
		"Nếu không cải thiện, hãy liên hệ bác sĩ."
)

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// Composer produces the article body. With a completion client it rewrites
// the source into a structured article; without one (or on any completion
// failure) it degrades to a deterministic pass-through. It always returns
// a usable article.
type Composer struct {
	settings  config.Compose
	completer llm.Completer
}

// NewComposer builds the composer. completer may be nil; composition then
// always takes the deterministic path.
func NewComposer(conf *config.Config, completer llm.Completer) *Composer {
	return &Composer{
		settings:  conf.Compose,
		completer: completer,
	}
}

// Run composes the article for a candidate.
func (c *Composer) Run(ctx context.Context, cand feed.Candidate) Article {
	if c.settings.Enabled && c.completer != nil {
		article, err := c.rewrite(ctx, cand)
		if err != nil {
			slog.Warn("AI composition unavailable, using deterministic fallback", "error", err)
		} else {
			return article
		}
	}

	return c.passthrough(cand)
}

// rewrite is the AI strategy: structured JSON generation, one length
// correction pass, then summary deduplication.
func (c *Composer) rewrite(ctx context.Context, cand feed.Candidate) (Article, error) {
	prompt := fmt.Sprintf(
		"Viết lại bài báo sức khỏe dưới đây thành bài viết %d–%d từ, tiếng Việt, giọng biên tập chuyên nghiệp.\n"+
			"Trả về đúng một đối tượng JSON theo mẫu:\n"+
			`{"summary": "tóm tắt 1-2 câu", "body": "các đoạn văn, phân cách bằng dòng trống", "tips": ["3-5 câu khuyên thực tế"], "keywords": ["từ khóa"]}`+
			"\n\nTiêu đề: %s\n\nNội dung: %s",
		c.settings.MinWords, c.settings.MaxWords,
		cand.Title, truncateRunes(cand.Text, composeInputLimit))

	output, err := c.completer.Complete(ctx, llm.Request{
		Model:       c.settings.Model,
		System:      "Bạn là biên tập viên y tế. Chỉ trả lời bằng JSON hợp lệ, không kèm văn bản nào khác.",
		User:        prompt,
		Temperature: 0.4,
	})
	if err != nil {
		return Article{}, err
	}

	parsed, err := parseRewrite(output)
	if err != nil {
		return Article{}, err
	}

	body := c.correctLength(ctx, parsed.Body)
	summary, body := stripSummaryDuplication(parsed.Summary, body)

	return Article{
		Title:      cand.Title,
		Summary:    summary,
		Body:       body,
		Tips:       parsed.Tips,
		Keywords:   parsed.Keywords,
		SourceLink: cand.Link,
	}, nil
}

// correctLength issues exactly one corrective follow-up when the body word
// count is outside the target band. The corrected body is accepted only if
// it still splits into well-formed paragraphs.
func (c *Composer) correctLength(ctx context.Context, body string) string {
	count := wordCount(body)
	if count >= c.settings.MinWords && count <= c.settings.MaxWords {
		return body
	}

	target := c.settings.MinWords
	direction := "mở rộng"
	if count > c.settings.MaxWords {
		target = c.settings.MaxWords
		direction = "rút gọn"
	}

	slog.Debug("Body outside target band, requesting correction",
		"words", count, "target", target)

	corrected, err := c.completer.Complete(ctx, llm.Request{
		Model: c.settings.Model,
		User: fmt.Sprintf(
			"Hãy %s bài viết sau thành khoảng %d từ, giữ nguyên cấu trúc đoạn văn. "+
				"Chỉ trả về nội dung bài viết.\n\n%s",
			direction, target, body),
		Temperature: 0.4,
	})
	if err != nil {
		slog.Warn("Length correction unavailable, keeping original body", "error", err)
		return body
	}

	if !wellFormedParagraphs(corrected) {
		slog.Warn("Corrected body not paragraph-structured, keeping original")
		return body
	}

	return strings.TrimSpace(corrected)
}

// passthrough is the deterministic fallback strategy: summary from the
// leading sentences, source text reproduced as paragraphs, no word-count
// enforcement.
func (c *Composer) passthrough(cand feed.Candidate) Article {
	text := strings.TrimSpace(cand.Text)
	if text == "" {
		text = cand.Title
	}

	summary, body := stripSummaryDuplication(leadingSentences(text), text)

	return Article{
		Title:      cand.Title,
		Summary:    summary,
		Body:       body,
		SourceLink: cand.Link,
	}
}

// ExpertTip renders the expert-advice text. Preference order: tips already
// produced by the rewrite, a dedicated completion, then the fixed safe
// fallback. rule, when set, is worked into the advice as a product mention.
func (c *Composer) ExpertTip(ctx context.Context, article Article, rule *config.InternalLink) string {
	if len(article.Tips) > 0 {
		return strings.TrimSpace(strings.Join(article.Tips, " "))
	}

	if c.completer != nil {
		cta := ""
		if rule != nil {
			cta = fmt.Sprintf("Sản phẩm gợi ý: %s.", rule.Title)
		}
		tip, err := c.completer.Complete(ctx, llm.Request{
			Model: c.settings.Model,
			User: fmt.Sprintf(
				"Bạn là chuyên gia y tế, viết 3–5 câu khuyên ngắn thực tế, tiếng Việt, dễ hiểu. %s\n\n"+
					"Tiêu đề: %s\n\nNội dung: %s",
				cta, article.Title, truncateRunes(article.Body, tipInputLimit)),
			Temperature: 0.4,
		})
		if err == nil {
			return strings.TrimSpace(tip)
		}
		slog.Warn("Expert tip unavailable, using fallback", "error", err)
	}

	return fallbackTip(rule)
}

func fallbackTip(rule *config.InternalLink) string {
	tip := fallbackTipText
	if rule != nil {
		tip += fmt.Sprintf(" Sản phẩm hỗ trợ như %s có thể giúp cải thiện hiệu quả.", rule.Title)
	}
	return tip
}

// stripSummaryDuplication drops the body's first paragraph when the
// summary's leading substring appears inside it, so the rendered document
// never opens by repeating its own callout.
func stripSummaryDuplication(summary, body string) (string, string) {
	summary = strings.TrimSpace(summary)
	body = strings.TrimSpace(body)
	if summary == "" || body == "" {
		return summary, body
	}

	paragraphs := splitParagraphs(body)
	if len(paragraphs) < 2 {
		return summary, body
	}

	lead := truncateRunes(summary, 60)
	if strings.Contains(paragraphs[0], strings.TrimSuffix(lead, ".")) {
		return summary, strings.Join(paragraphs[1:], "\n\n")
	}

	return summary, body
}

// leadingSentences returns the first sentence of text, extended with the
// second when the first is very short.
func leadingSentences(text string) string {
	sentences := sentenceEndRe.Split(text, 3)
	first := strings.TrimSpace(sentences[0])
	if len([]rune(first)) < 50 && len(sentences) > 1 && strings.TrimSpace(sentences[1]) != "" {
		return first + ". " + strings.TrimSpace(sentences[1]) + "."
	}
	if first != "" && !strings.ContainsAny(first[len(first)-1:], ".!?") {
		first += "."
	}
	return first
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

func wellFormedParagraphs(text string) bool {
	return len(splitParagraphs(text)) > 0
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

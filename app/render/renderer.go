package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/vietyenltd/healthdesk/app/compose"
	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/seo"
)

const maxKeyPoints = 6

var bulletRe = regexp.MustCompile(`(?m)^[\-–•]\s*(.+)$`)

// Renderer assembles the final HTML fragment. Deterministic string
// assembly, no external calls. All user-supplied text is escaped; only the
// pre-approved rule URL/title is embedded verbatim.
type Renderer struct {
	brand       config.Brand
	heroCaption string
}

func NewRenderer(conf *config.Config) *Renderer {
	return &Renderer{
		brand:       conf.Brand,
		heroCaption: conf.Publishing.HeroCaption,
	}
}

// Run renders the document in fixed order: hero figure, summary callout,
// optional key-points list, body paragraphs, expert-tip block, reference
// footer with disclaimer, structured-data tag.
func (r *Renderer) Run(article compose.Article, images []string, tip string, rule *config.InternalLink, meta seo.Metadata) string {
	var buf bytes.Buffer

	hero := ""
	if len(images) > 0 {
		hero = images[0]
	}

	r.writeHero(&buf, hero)
	r.writeSummary(&buf, article.Summary)
	r.writeKeyPoints(&buf, article.Body)
	r.writeBody(&buf, article.Body)
	r.writeExpertTip(&buf, tip, rule)
	r.writeFooter(&buf, article.SourceLink)
	r.writeStructuredData(&buf, meta, hero, article.SourceLink)

	return buf.String()
}

func (r *Renderer) writeHero(buf *bytes.Buffer, hero string) {
	// The hero may come from a feed entry, not only from configuration.
	buf.WriteString(fmt.Sprintf(
		"<figure><img src='%s' style='width:100%%;border-radius:14px;'><figcaption>%s</figcaption></figure>",
		html.EscapeString(hero), html.EscapeString(r.heroCaption)))
}

func (r *Renderer) writeSummary(buf *bytes.Buffer, summary string) {
	buf.WriteString(fmt.Sprintf(
		"<div style='background:linear-gradient(90deg,#eaf2ff,#f7fbff);border:1px solid #d9e7ff;"+
			"border-radius:12px;padding:14px 16px;margin:16px 0'>"+
			"<strong style='color:#004aad'>🩺 Tóm tắt ngắn gọn:</strong> %s</div>",
		html.EscapeString(summary)))
}

// writeKeyPoints renders the bullet list only when the body contains
// dash-prefixed lines.
func (r *Renderer) writeKeyPoints(buf *bytes.Buffer, body string) {
	matches := bulletRe.FindAllStringSubmatch(body, maxKeyPoints)
	if len(matches) == 0 {
		return
	}

	buf.WriteString("<h2>💡 Điều bạn cần lưu ý</h2><ul style='list-style:none;padding-left:0'>")
	for _, m := range matches {
		buf.WriteString(fmt.Sprintf("<li>✅ %s</li>", html.EscapeString(strings.TrimSpace(m[1]))))
	}
	buf.WriteString("</ul>")
}

func (r *Renderer) writeBody(buf *bytes.Buffer, body string) {
	escaped := html.EscapeString(body)
	escaped = strings.ReplaceAll(escaped, "\n\n", "</p><p>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	buf.WriteString("<p>" + escaped + "</p>")
}

func (r *Renderer) writeExpertTip(buf *bytes.Buffer, tip string, rule *config.InternalLink) {
	buf.WriteString(fmt.Sprintf(
		`<div style="margin:26px 0;background:linear-gradient(135deg,#004aad,#0b73d5);color:#fff;`+
			`border-radius:12px;padding:18px;">`+
			`<div style="font-size:18px;font-weight:700;margin-bottom:6px">💬 Gợi ý từ chuyên gia</div>`+
			`<div style="line-height:1.7">%s</div>`,
		html.EscapeString(tip)))

	if rule != nil {
		buf.WriteString(fmt.Sprintf(
			`<div style="margin-top:10px">🌐 Tham khảo: <a href="%s" style="color:#ffe07a;text-decoration:underline">%s</a></div>`,
			rule.URL, rule.Title))
	}

	buf.WriteString("</div>")
}

func (r *Renderer) writeFooter(buf *bytes.Buffer, sourceURL string) {
	if sourceURL != "" {
		buf.WriteString(fmt.Sprintf(
			`<p style="margin-top:14px">📎 Nguồn bài gốc: <a href="%s" target="_blank" rel="noopener">Xem tại đây</a></p>`,
			html.EscapeString(sourceURL)))
	}

	buf.WriteString(
		`<div style="border:1px solid #e8eefc;border-radius:12px;padding:14px 16px;background:#fbfdff;margin-top:24px">` +
			`<p><span style="color:#004aad">🔗 Nguồn tham khảo:</span> Tổng hợp từ các nguồn chính thống về sức khỏe.</p>` +
			`<p style="color:#667;font-size:14px">⚠️ <strong>Miễn trừ trách nhiệm:</strong> Nội dung chỉ tham khảo, không thay thế tư vấn y khoa.</p></div>`)
}

// writeStructuredData embeds a schema.org NewsArticle block built from the
// SEO metadata, the hero image and the brand configuration.
func (r *Renderer) writeStructuredData(buf *bytes.Buffer, meta seo.Metadata, hero, sourceURL string) {
	org := map[string]any{"@type": "Organization", "name": r.brand.SiteName}

	images := []string{}
	if hero != "" {
		images = append(images, hero)
	}

	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "NewsArticle",
		"headline":      meta.Title,
		"description":   meta.Description,
		"image":         images,
		"datePublished": time.Now().UTC().Format(time.RFC3339),
		"author":        org,
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  r.brand.SiteName,
			"logo":  map[string]any{"@type": "ImageObject", "url": r.brand.PublisherLogo},
		},
		"mainEntityOfPage": sourceURL,
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return
	}

	buf.WriteString(`<script type="application/ld+json">`)
	buf.Write(encoded)
	buf.WriteString("</script>")
}

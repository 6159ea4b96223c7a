package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagRe          = regexp.MustCompile(`<[^>]*>`)
	trailingWSRe   = regexp.MustCompile(`[ \t]+\n`)
	newlineRunRe   = regexp.MustCompile(`\n{3,}`)
	spaceCollapsRe = regexp.MustCompile(`[ \t]{2,}`)
)

// Sanitizer strips markup from raw feed HTML and extracts the first
// embedded image reference.
type Sanitizer struct{}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Run returns markup-free text with paragraph breaks preserved, plus the
// src of the first image in the fragment ("" when absent). It never fails:
// unparseable input degrades to a plain tag strip.
func (s *Sanitizer) Run(raw string) (string, string) {
	if strings.TrimSpace(raw) == "" {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeText(tagRe.ReplaceAllString(raw, " ")), ""
	}

	doc.Find("script, style").Remove()

	imageURL := ""
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		imageURL = strings.TrimSpace(src)
	}

	// Block elements become paragraph breaks so the text keeps its shape.
	doc.Find("p, div, li, h1, h2, h3, h4, blockquote").AfterHtml("\n\n")
	doc.Find("br").AfterHtml("\n")

	return normalizeText(doc.Text()), imageURL
}

func normalizeText(text string) string {
	// Entities may decode into literal angle brackets; strip any markup
	// that survives text extraction.
	text = tagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "<", "")
	text = strings.ReplaceAll(text, ">", "")

	text = spaceCollapsRe.ReplaceAllString(text, " ")
	text = trailingWSRe.ReplaceAllString(text, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

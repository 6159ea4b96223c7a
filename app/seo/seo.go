package seo

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleRunes       = 60
	maxDescriptionRunes = 160
	maxSlugRunes        = 80
	maxKeywords         = 8

	// DefaultSlug is substituted when a title yields no usable slug at all.
	DefaultSlug = "bai-viet-suc-khoe"
)

var (
	wordRe        = regexp.MustCompile(`[\p{L}\p{N}]{4,}`)
	sentenceRe    = regexp.MustCompile(`[.!?]\s+`)
	nonSlugRe     = regexp.MustCompile(`[^a-zA-Z0-9\-\s]`)
	slugJoinRe    = regexp.MustCompile(`[\s\-]+`)
	asciiFoldConv = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Vietnamese function words excluded from the keyword list.
var stoplist = map[string]bool{
	"và": true, "cho": true, "của": true, "khi": true, "bị": true,
	"về": true, "trong": true, "được": true, "bệnh": true, "sức": true,
	"khỏe": true, "người": true, "bài": true, "viết": true, "này": true,
	"các": true, "một": true,
}

// Metadata is derived purely from the composed article; it is recomputed
// whenever the article changes and never mutated independently.
type Metadata struct {
	Title       string // <= 60 chars
	Description string // <= 160 chars
	Keywords    []string
	Slug        string // [a-z0-9-]*, <= 80 chars, never empty
}

// Generator derives SEO metadata. Pure and deterministic, no external
// calls.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(title, body string) Metadata {
	return Metadata{
		Title:       truncateWithEllipsis(strings.TrimSpace(title), maxTitleRunes),
		Description: description(body),
		Keywords:    keywords(title, body),
		Slug:        Slugify(title),
	}
}

// description takes the first sentence of body, extends it with the second
// when very short, and bounds the result at 160 characters.
func description(body string) string {
	sentences := sentenceRe.Split(body, 3)
	first := strings.TrimSpace(sentences[0])
	if runeLen(first) < 50 && len(sentences) > 1 && strings.TrimSpace(sentences[1]) != "" {
		first += ". " + strings.TrimSpace(sentences[1])
	}
	return truncateWithEllipsis(first, maxDescriptionRunes)
}

// keywords tokenizes title+body into words of >= 4 letters/digits,
// lowercased, stoplist-filtered, deduplicated in first-seen order.
func keywords(title, body string) []string {
	words := wordRe.FindAllString(strings.ToLower(title+" "+body), -1)

	seen := make(map[string]bool, len(words))
	var uniq []string
	for _, w := range words {
		if stoplist[w] || seen[w] {
			continue
		}
		seen[w] = true
		uniq = append(uniq, w)
		if len(uniq) == maxKeywords {
			break
		}
	}

	return uniq
}

// Slugify normalizes a title into an ASCII URL slug. Idempotent: feeding a
// slug back in returns it unchanged.
func Slugify(value string) string {
	folded, _, err := transform.String(asciiFoldConv, value)
	if err != nil {
		folded = value
	}

	folded = nonSlugRe.ReplaceAllString(folded, "")
	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = slugJoinRe.ReplaceAllString(folded, "-")

	if r := []rune(folded); len(r) > maxSlugRunes {
		folded = string(r[:maxSlugRunes])
	}
	folded = strings.Trim(folded, "-")

	if folded == "" {
		return DefaultSlug
	}
	return folded
}

// truncateWithEllipsis cuts s at limit runes, ending the truncated form in
// exactly one ellipsis within the limit.
func truncateWithEllipsis(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimRight(string(r[:limit-3]), " ") + "..."
}

func runeLen(s string) int {
	return len([]rune(s))
}

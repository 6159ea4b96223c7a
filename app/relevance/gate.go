package relevance

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/llm"
)

const classifierInputLimit = 6000

// Gate is the two-tier admission filter. The keyword tier is the
// always-available baseline; the AI tier refines its positives. Both tiers
// must pass (AND): an item with no literal domain keyword is rejected
// without paying for the external call, and a classifier failure degrades
// to the keyword result.
type Gate struct {
	keywords  []string
	aiCheck   config.AICheck
	completer llm.Completer
}

// NewGate builds the gate. completer may be nil; the gate then runs
// keyword-only regardless of the ai_check.enabled flag.
func NewGate(conf *config.Config, completer llm.Completer) *Gate {
	return &Gate{
		keywords:  conf.Keywords,
		aiCheck:   conf.AICheck,
		completer: completer,
	}
}

// Run reports whether the item is in-domain, with a human-readable reason.
func (g *Gate) Run(ctx context.Context, title, text string) (bool, string) {
	combined := title + " " + text

	if !g.matchKeywords(combined) {
		return false, "no domain keyword matched"
	}

	if !g.aiCheck.Enabled || g.completer == nil {
		return true, "domain keyword matched"
	}

	ok, err := g.classify(ctx, combined)
	if err != nil {
		slog.Warn("Classifier unavailable, using keyword result", "error", err)
		return true, "domain keyword matched (classifier unavailable)"
	}
	if !ok {
		return false, "rejected by classifier"
	}

	return true, "accepted by classifier"
}

func (g *Gate) matchKeywords(text string) bool {
	t := strings.ToLower(text)
	for _, keyword := range g.keywords {
		if strings.Contains(t, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// classify issues a single-shot Y/N request. A numeric answer is compared
// against the configured threshold instead.
func (g *Gate) classify(ctx context.Context, text string) (bool, error) {
	answer, err := g.completer.Complete(ctx, llm.Request{
		Model:       g.aiCheck.Model,
		System:      "Answer Y or N only.",
		User:        g.aiCheck.Prompt + "\n\n" + truncateRunes(text, classifierInputLimit),
		Temperature: 0,
	})
	if err != nil {
		return false, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(answer))
	switch {
	case strings.HasPrefix(normalized, "Y"):
		return true, nil
	case strings.HasPrefix(normalized, "N"):
		return false, nil
	}

	if prob, err := strconv.ParseFloat(strings.TrimSuffix(normalized, "."), 64); err == nil && prob >= 0 && prob <= 1 {
		return prob >= g.aiCheck.Threshold, nil
	}

	return false, llm.Unavailable("unparseable classifier answer", nil)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

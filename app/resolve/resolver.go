package resolve

import (
	"strings"

	"github.com/vietyenltd/healthdesk/app/config"
)

// Resolver maps composed content to topic-bucket fallback images and to at
// most one internal cross-promotion rule. Pure lookups over static
// configuration; buckets and rules are scanned in configured order and the
// first match wins.
type Resolver struct {
	topics      []config.Topic
	rules       []config.InternalLink
	defaultHero string
}

func NewResolver(conf *config.Config) *Resolver {
	return &Resolver{
		topics:      conf.Topics,
		rules:       conf.InternalLinks,
		defaultHero: conf.Publishing.DefaultHeroURL,
	}
}

// Images resolves the hero image list. An explicitly supplied image (e.g.
// extracted from the feed entry) wins outright; otherwise the first topic
// bucket whose match keywords appear in the text supplies its fallback
// list; otherwise the configured default hero stands alone.
func (r *Resolver) Images(text, explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}

	t := strings.ToLower(text)
	for _, topic := range r.topics {
		if matchesAny(t, topic.Match) {
			return topic.FallbackImages
		}
	}

	return []string{r.defaultHero}
}

// LinkRule returns the first rule whose keyword set intersects the text,
// or nil when none matches.
func (r *Resolver) LinkRule(text string) *config.InternalLink {
	t := strings.ToLower(text)
	for i := range r.rules {
		if matchesAny(t, r.rules[i].Keywords) {
			return &r.rules[i]
		}
	}
	return nil
}

func matchesAny(loweredText string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(loweredText, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

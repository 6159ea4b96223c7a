package config

// Config represents a complete pipeline configuration
type Config struct {
	Sources       []string       `yaml:"sources"`
	Keywords      []string       `yaml:"keywords"`
	AICheck       AICheck        `yaml:"ai_check"`
	Compose       Compose        `yaml:"compose"`
	Topics        []Topic        `yaml:"topics"`
	InternalLinks []InternalLink `yaml:"internal_links"`
	Publishing    Publishing     `yaml:"publishing"`
	Brand         Brand          `yaml:"brand"`
	Settings      Settings       `yaml:"settings"`
}

// AICheck configures the AI tier of the relevance gate
type AICheck struct {
	Enabled   bool    `yaml:"enabled"`
	Model     string  `yaml:"model"`
	Prompt    string  `yaml:"prompt"`
	Threshold float64 `yaml:"threshold"`
}

// Compose configures the AI rewrite strategy of the content composer
type Compose struct {
	Enabled  bool   `yaml:"enabled"`
	Model    string `yaml:"model"`
	MinWords int    `yaml:"min_words"`
	MaxWords int    `yaml:"max_words"`
}

// Topic is a bucket of match keywords with fallback hero images
type Topic struct {
	Name           string   `yaml:"name"`
	Match          []string `yaml:"match"`
	FallbackImages []string `yaml:"fallback_images"`
}

// InternalLink is a cross-promotion rule matched by keyword
type InternalLink struct {
	Keywords []string `yaml:"keywords"`
	URL      string   `yaml:"url"`
	Title    string   `yaml:"title"`
}

// Publishing holds the draft-creation parameters
type Publishing struct {
	CategoryID     int      `yaml:"category_id"`
	Tags           []string `yaml:"tags"`
	PostStatus     string   `yaml:"post_status"`
	DefaultHeroURL string   `yaml:"default_hero_url"`
	HeroCaption    string   `yaml:"hero_caption"`
}

// Brand describes the publisher for structured data
type Brand struct {
	SiteName      string `yaml:"site_name"`
	PublisherLogo string `yaml:"publisher_logo"`
}

// Settings contains feed processing settings
type Settings struct {
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"` // seconds
	ExtractContent bool `yaml:"extract_content"`
	MinSourceChars int  `yaml:"min_source_chars"`
}

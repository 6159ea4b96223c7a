package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default domain vocabulary for the keyword tier of the relevance gate.
// Used when the configuration does not supply its own list.
var defaultKeywords = []string{
	"sức khỏe", "y tế", "bệnh", "điều trị", "dự phòng", "triệu chứng", "chẩn đoán",
	"nhãn khoa", "bờ mi", "khô mắt", "viêm", "thuốc", "bác sĩ", "bệnh viện",
	"phòng bệnh", "vaccine", "dinh dưỡng", "tim mạch", "da liễu", "nhi khoa",
}

// Loader handles loading and validation of the pipeline configuration
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, validates and applies defaults to the pipeline configuration.
// All schema problems surface here as a single startup error; nothing is
// default-guessed at use sites.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	if err := l.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return &config, nil
}

func (l *Loader) setDefaults(config *Config) {
	if len(config.Keywords) == 0 {
		config.Keywords = defaultKeywords
	}
	if config.AICheck.Model == "" {
		config.AICheck.Model = "gpt-4o-mini"
	}
	if config.Compose.Model == "" {
		config.Compose.Model = config.AICheck.Model
	}
	if config.Compose.MinWords == 0 {
		config.Compose.MinWords = 700
	}
	if config.Compose.MaxWords == 0 {
		config.Compose.MaxWords = 1000
	}
	if config.Publishing.PostStatus == "" {
		config.Publishing.PostStatus = "draft"
	}
	if config.Publishing.HeroCaption == "" {
		config.Publishing.HeroCaption = "Ảnh minh hoạ: Unsplash"
	}
	if config.Brand.SiteName == "" {
		config.Brand.SiteName = "VietYenLTD Health Desk"
	}
	if config.Settings.MaxItems == 0 {
		config.Settings.MaxItems = 10
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30 // seconds
	}
	if config.Settings.MinSourceChars == 0 {
		config.Settings.MinSourceChars = 400
	}
}

func (l *Loader) validate(config *Config) error {
	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one feed source is required")
	}
	if config.Publishing.DefaultHeroURL == "" {
		return fmt.Errorf("publishing.default_hero_url is required")
	}
	if config.AICheck.Threshold < 0 || config.AICheck.Threshold > 1 {
		return fmt.Errorf("ai_check.threshold must be between 0 and 1")
	}
	if config.Compose.MinWords > config.Compose.MaxWords {
		return fmt.Errorf("compose.min_words must not exceed compose.max_words")
	}
	if config.Settings.MaxItems < 0 {
		return fmt.Errorf("settings.max_items must be non-negative")
	}
	if config.Settings.Timeout < 0 {
		return fmt.Errorf("settings.timeout must be non-negative")
	}

	for i, topic := range config.Topics {
		if len(topic.Match) == 0 {
			return fmt.Errorf("topic at index %d must have at least one match keyword", i)
		}
		if len(topic.FallbackImages) == 0 {
			return fmt.Errorf("topic at index %d must have at least one fallback image", i)
		}
	}

	for i, rule := range config.InternalLinks {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("internal link at index %d must have at least one keyword", i)
		}
		if rule.URL == "" {
			return fmt.Errorf("internal link at index %d must have a URL", i)
		}
		if rule.Title == "" {
			return fmt.Errorf("internal link at index %d must have a title", i)
		}
	}

	return nil
}

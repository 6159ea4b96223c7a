package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// WordPress connection
	WPBaseURL     string `long:"wp-url" env:"WP_URL" description:"WordPress base URL (required, e.g. https://example.com)"`
	WPUsername    string `long:"wp-username" env:"WP_USERNAME" description:"WordPress user name (required)"`
	WPAppPassword string `long:"wp-app-password" env:"WP_APP_PASSWORD" description:"WordPress application password (required)"`

	// OpenAI connection
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (optional, enables AI composition)"`

	// Application configuration
	ConfigPath        string `long:"config" env:"BOT_CONFIG_PATH" default:"./config.yml" description:"Path to the pipeline configuration file"`
	DataDir           string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the publish history database"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Once              bool   `long:"once" env:"RUN_ONCE" description:"Run a single pipeline pass and exit"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"HealthDesk/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Ho_Chi_Minh" description:"Timezone for timestamps and the daily cap"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		WPBaseURL:         strings.TrimRight(raw.WPBaseURL, "/"),
		WPUsername:        raw.WPUsername,
		WPAppPassword:     raw.WPAppPassword,
		OpenAIAPIKey:      raw.OpenAIAPIKey,
		ConfigPath:        raw.ConfigPath,
		DataDir:           raw.DataDir,
		Port:              raw.Port,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		Once:              raw.Once,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

// validate covers the only fatal misconfiguration class: a bot without
// WordPress credentials has nowhere to publish.
func (c *Cfg) validate() error {
	var missing []string
	if c.WPBaseURL == "" {
		missing = append(missing, "wp-url")
	}
	if c.WPUsername == "" {
		missing = append(missing, "wp-username")
	}
	if c.WPAppPassword == "" {
		missing = append(missing, "wp-app-password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required WordPress configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

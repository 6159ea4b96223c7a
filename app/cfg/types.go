package cfg

type Cfg struct {
	// WordPress connection
	WPBaseURL     string
	WPUsername    string
	WPAppPassword string

	// OpenAI connection (optional; the pipeline degrades without it)
	OpenAIAPIKey string

	// Application configuration
	ConfigPath        string
	DataDir           string
	Port              string
	SchedulerInterval int
	APIAccessKey      string
	Once              bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

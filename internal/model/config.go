package model

import "time"

// Config is the complete runtime configuration for an investigation run.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Search  SearchConfig  `yaml:"search"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
}

// BrowserConfig controls the automation session.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay"` // pause after quiescence for deferred content
	ProxyServer       string        `yaml:"proxy_server"`
	ProxyUsername     string        `yaml:"proxy_username"`
	ProxyPassword     string        `yaml:"proxy_password"`
}

// SearchConfig controls search-provider paging.
type SearchConfig struct {
	Pages          int `yaml:"pages"`            // result pages per run
	ResultsPerPage int `yaml:"results_per_page"` // provider page size, 10
}

// ScrapeConfig controls the dispatcher and escalation tier.
type ScrapeConfig struct {
	SkipDomains     []string      `yaml:"skip_domains"`     // substring match against link host
	FastConcurrency int           `yaml:"fast_concurrency"` // fast-tier admission ceiling
	RespectRobots   bool          `yaml:"respect_robots"`   // route robots-disallowed links to escalation
	APITokens       []string      `yaml:"-"`                // scraping API key pool, from env
	APIBaseURL      string        `yaml:"api_base_url"`
	ProfileAPIKey   string        `yaml:"-"`
	ProfileBaseURL  string        `yaml:"profile_base_url"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	HTTPProxy       string        `yaml:"http_proxy"`
	HTTPSProxy      string        `yaml:"https_proxy"`
}

// OracleConfig controls the reasoning oracle client.
type OracleConfig struct {
	APIKey    string        `yaml:"-"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// EnrichConfig controls post-run identifier lookups.
type EnrichConfig struct {
	BreachAPIKey   string        `yaml:"-"`
	BreachBaseURL  string        `yaml:"breach_base_url"`
	BreachInterval time.Duration `yaml:"breach_interval"` // hard per-key rate limit on the service side
	UsernameTool   string        `yaml:"username_tool"`
	EmailTool      string        `yaml:"email_tool"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
}

// CacheConfig controls caching of escalation API responses.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir"` // disk tier location, empty = memory only
}

// OutputConfig controls run artifacts and diagnostics.
type OutputConfig struct {
	DataDir string `yaml:"data_dir"` // run directories are created beneath this
	Verbose bool   `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. Secrets are expected from the
// environment and never carry a default.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			SettleDelay:       4 * time.Second,
		},
		Search: SearchConfig{
			Pages:          3,
			ResultsPerPage: 10,
		},
		Scrape: ScrapeConfig{
			SkipDomains:     []string{"linkedin.com", "facebook.com"},
			FastConcurrency: 2,
			APIBaseURL:      "http://api.scrape.do",
			ProfileBaseURL:  "https://nubela.co/proxycurl/api/v2/linkedin",
			HTTPTimeout:     60 * time.Second,
		},
		Oracle: OracleConfig{
			BaseURL:   "https://api.deepseek.com",
			Model:     "deepseek-chat",
			Timeout:   120 * time.Second,
			MaxTokens: 4096,
		},
		Enrich: EnrichConfig{
			BreachBaseURL:  "https://haveibeenpwned.com/api/v3",
			BreachInterval: 6 * time.Second,
			UsernameTool:   "sherlock",
			EmailTool:      "holehe",
			HTTPTimeout:    30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			DataDir: "data",
		},
	}
}

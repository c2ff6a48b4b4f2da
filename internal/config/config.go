// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the YAML config is looked up when no path is given.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	AI       AIConfig       `yaml:"ai"`
	Places   PlacesConfig   `yaml:"places"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Blogger  BloggerConfig  `yaml:"blogger"`
	Telegram TelegramConfig `yaml:"telegram"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type StoreConfig struct {
	DataDir       string `yaml:"data_dir"`
	RawFile       string `yaml:"raw_file"`
	ProcessedFile string `yaml:"processed_file"`
}

// RawPath is the full path of the raw jobs file.
func (s StoreConfig) RawPath() string {
	return filepath.Join(s.DataDir, s.RawFile)
}

// ProcessedPath is the full path of the processed jobs file.
func (s StoreConfig) ProcessedPath() string {
	return filepath.Join(s.DataDir, s.ProcessedFile)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
	Dir    string `yaml:"dir"`
}

type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ScrapeConfig struct {
	BaseURL    string            `yaml:"base_url"`
	MaxRetries int               `yaml:"max_retries"`
	RetryDelay time.Duration     `yaml:"retry_delay"`
	Timeout    time.Duration     `yaml:"timeout"`
	MaxWorkers int               `yaml:"max_workers"`
	FetchDelay time.Duration     `yaml:"fetch_delay"`
	Headers    map[string]string `yaml:"headers"`
	Cookies    map[string]string `yaml:"cookies"`
	Selectors  Selectors         `yaml:"selectors"`
}

type Selectors struct {
	Pages       string `yaml:"pages"`
	URLs        string `yaml:"urls"`
	Description string `yaml:"description"`
	Details     string `yaml:"details"`
}

type AIConfig struct {
	Provider     string        `yaml:"provider"` // anthropic or groq
	AnthropicKey string        `yaml:"anthropic_api_key"`
	GroqKey      string        `yaml:"groq_api_key"`
	Model        string        `yaml:"model"`
	MaxTokens    int64         `yaml:"max_tokens"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// APIKey returns the key of the selected provider.
func (a AIConfig) APIKey() string {
	if a.Provider == ProviderGroq {
		return a.GroqKey
	}
	return a.AnthropicKey
}

const (
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

type PlacesConfig struct {
	APIKey    string  `yaml:"api_key"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
}

type PipelineConfig struct {
	ProcessDelay  time.Duration `yaml:"process_delay"`
	PublishDelay  time.Duration `yaml:"publish_delay"`
	PublishWindow int           `yaml:"publish_window"`
	DeadlineDays  int           `yaml:"deadline_days"`
	TestLimit     int           `yaml:"test_limit"`
}

type BloggerConfig struct {
	BaseURL       string `yaml:"base_url"`
	PermalinkBase string `yaml:"permalink_base"`
	ProfileAPI    string `yaml:"profile_api"`
	ProfileID     string `yaml:"profile_id"`
	CookiesFile   string `yaml:"cookies_file"`
	Headless      bool   `yaml:"headless"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether run reports should be sent.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// DefaultsConfig holds the values the normalizer falls back to when the
// extractor leaves a field empty.
type DefaultsConfig struct {
	Country            string `yaml:"country"`
	CountryISO         string `yaml:"country_iso"`
	Currency           string `yaml:"currency"`
	SalaryUnit         string `yaml:"salary_unit"`
	PostalCode         string `yaml:"postal_code"`
	CredentialCategory string `yaml:"credential_category"`
	MonthsOfExperience int    `yaml:"months_of_experience"`
	LocationType       string `yaml:"location_type"`
}

// Load reads .env, the YAML file at path (DefaultPath when empty) and
// environment overrides, then fills defaults. A missing YAML file is not an
// error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrapf(err, "config: parse %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.AI.Provider, "AI_PROVIDER")
	setString(&cfg.AI.AnthropicKey, "ANTHROPIC_API_KEY")
	setString(&cfg.AI.GroqKey, "GROQ_API_KEY")
	setString(&cfg.AI.Model, "AI_MODEL")
	setString(&cfg.Places.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Blogger.ProfileID, "BLOGGER_PROFILE_ID")
	setString(&cfg.Blogger.ProfileAPI, "BLOGGER_PROFILE_API")
	setString(&cfg.Store.DataDir, "KHALEEJ_DATA_DIR")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return eris.Wrap(err, "config: invalid TELEGRAM_CHAT_ID")
		}
		cfg.Telegram.ChatID = id
	}

	if interval := os.Getenv("SCHEDULE_INTERVAL_MINUTES"); interval != "" {
		mins, err := strconv.Atoi(interval)
		if err != nil {
			return eris.Wrap(err, "config: invalid SCHEDULE_INTERVAL_MINUTES")
		}
		cfg.Schedule.Interval = time.Duration(mins) * time.Minute
	}
	return nil
}

func applyDefaults(cfg *Config) {
	setString := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}

	setString(&cfg.Store.DataDir, "data")
	setString(&cfg.Store.RawFile, "jobs.json")
	setString(&cfg.Store.ProcessedFile, "processed_jobs.json")

	setString(&cfg.Log.Level, "info")
	setString(&cfg.Log.Format, "console")

	setDuration(&cfg.Schedule.Interval, 30*time.Minute)

	setString(&cfg.Scrape.BaseURL, "https://buzzon.khaleejtimes.com/ad-category/jobs-vacancies/")
	if !strings.HasSuffix(cfg.Scrape.BaseURL, "/") {
		cfg.Scrape.BaseURL += "/"
	}
	setInt(&cfg.Scrape.MaxRetries, 5)
	setDuration(&cfg.Scrape.RetryDelay, 8*time.Second)
	setDuration(&cfg.Scrape.Timeout, 30*time.Second)
	setInt(&cfg.Scrape.MaxWorkers, 10)
	setDuration(&cfg.Scrape.FetchDelay, 500*time.Millisecond)
	if cfg.Scrape.Headers == nil {
		cfg.Scrape.Headers = map[string]string{
			"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"accept-language": "en-US,en;q=0.9",
			"cache-control":   "max-age=0",
			"user-agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
		}
	}
	setString(&cfg.Scrape.Selectors.Pages, "div.paging > div.pages > span.total")
	setString(&cfg.Scrape.Selectors.URLs, "div.post-left > a")
	setString(&cfg.Scrape.Selectors.Description, "div.single-main")
	setString(&cfg.Scrape.Selectors.Details, "div.bigright ul")

	setString(&cfg.AI.Provider, ProviderAnthropic)
	if cfg.AI.Model == "" {
		if cfg.AI.Provider == ProviderGroq {
			cfg.AI.Model = "llama-3.3-70b-versatile"
		} else {
			cfg.AI.Model = "claude-haiku-4-5-20251001"
		}
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 8000
	}
	setInt(&cfg.AI.MaxRetries, 3)
	setDuration(&cfg.AI.RetryDelay, 5*time.Second)

	if cfg.Places.RateLimit == 0 {
		cfg.Places.RateLimit = 5
	}

	setDuration(&cfg.Pipeline.ProcessDelay, 2*time.Second)
	setDuration(&cfg.Pipeline.PublishDelay, 5*time.Second)
	setInt(&cfg.Pipeline.PublishWindow, 10)
	setInt(&cfg.Pipeline.DeadlineDays, 30)
	setInt(&cfg.Pipeline.TestLimit, 3)

	setString(&cfg.Blogger.BaseURL, "https://www.blogger.com/")
	setString(&cfg.Blogger.PermalinkBase, "https://www.khaleejtimes.com/")
	setString(&cfg.Blogger.ScreenshotDir, filepath.Join("logs", "screenshots"))

	setString(&cfg.Defaults.Country, "United Arab Emirates")
	setString(&cfg.Defaults.CountryISO, "AE")
	setString(&cfg.Defaults.Currency, "AED")
	setString(&cfg.Defaults.SalaryUnit, "MONTH")
	setString(&cfg.Defaults.PostalCode, "00000")
	setString(&cfg.Defaults.CredentialCategory, "bachelor degree")
	setInt(&cfg.Defaults.MonthsOfExperience, 24)
	setString(&cfg.Defaults.LocationType, "ON-SITE")
}

// Validate checks the settings required to start. Missing optional
// integrations are reported by Warnings instead.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderAnthropic:
		if c.AI.AnthropicKey == "" {
			return eris.New("config: ANTHROPIC_API_KEY is required")
		}
	case ProviderGroq:
		if c.AI.GroqKey == "" {
			return eris.New("config: GROQ_API_KEY is required")
		}
	default:
		return eris.Errorf("config: unknown ai provider %q", c.AI.Provider)
	}
	if c.Schedule.Interval < time.Minute {
		return eris.Errorf("config: schedule interval %s is below one minute", c.Schedule.Interval)
	}
	if c.Scrape.MaxWorkers < 1 {
		return eris.New("config: scrape.max_workers must be positive")
	}
	return nil
}

// Warnings lists optional integrations that are not configured.
func (c *Config) Warnings() []string {
	var out []string
	if c.Places.APIKey == "" {
		out = append(out, "GOOGLE_PLACES_API_KEY not set, location enrichment disabled")
	}
	if !c.Telegram.Enabled() {
		out = append(out, "Telegram not configured, run reports disabled")
	}
	if c.Blogger.ProfileID == "" && c.Blogger.CookiesFile == "" {
		out = append(out, "no Blogger profile or cookies configured, publishing will likely fail to authenticate")
	}
	return out
}

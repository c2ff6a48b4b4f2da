package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AI_PROVIDER", "ANTHROPIC_API_KEY", "GROQ_API_KEY", "AI_MODEL",
		"KHALEEJ_DATA_DIR", "SCHEDULE_INTERVAL_MINUTES", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 5, cfg.Scrape.MaxRetries)
	assert.Equal(t, 8*time.Second, cfg.Scrape.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, 10, cfg.Scrape.MaxWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.Scrape.FetchDelay)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.ProcessDelay)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PublishDelay)
	assert.Equal(t, 10, cfg.Pipeline.PublishWindow)
	assert.Equal(t, 30, cfg.Pipeline.DeadlineDays)
	assert.Equal(t, filepath.Join("data", "jobs.json"), cfg.Store.RawPath())
	assert.Equal(t, filepath.Join("data", "processed_jobs.json"), cfg.Store.ProcessedPath())
	assert.Equal(t, "United Arab Emirates", cfg.Defaults.Country)
	assert.Equal(t, "div.post-left > a", cfg.Scrape.Selectors.URLs)
	assert.Equal(t, ProviderAnthropic, cfg.AI.Provider)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
schedule:
  interval: 45m
scrape:
  base_url: https://example.com/jobs
  fetch_delay: 1s
pipeline:
  publish_window: 3
ai:
  provider: groq
telegram:
  chat_id: 42
`)
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("TELEGRAM_CHAT_ID", "99")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, "https://example.com/jobs/", cfg.Scrape.BaseURL)
	assert.Equal(t, time.Second, cfg.Scrape.FetchDelay)
	assert.Equal(t, 3, cfg.Pipeline.PublishWindow)
	assert.Equal(t, ProviderGroq, cfg.AI.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.AI.Model)
	assert.Equal(t, "gsk-test", cfg.AI.APIKey())
	assert.Equal(t, int64(99), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "schedule: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "anthropic key present", mutate: func(c *Config) { c.AI.AnthropicKey = "sk" }},
		{name: "anthropic key missing", mutate: func(c *Config) {}, wantErr: true},
		{name: "groq key missing", mutate: func(c *Config) { c.AI.Provider = ProviderGroq }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "gemini" }, wantErr: true},
		{name: "interval too short", mutate: func(c *Config) {
			c.AI.AnthropicKey = "sk"
			c.Schedule.Interval = time.Second
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.Len(t, cfg.Warnings(), 3)

	cfg.Places.APIKey = "places"
	cfg.Telegram = TelegramConfig{Token: "t", ChatID: 1}
	cfg.Blogger.CookiesFile = "cookies.json"
	assert.Empty(t, cfg.Warnings())
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json", Dir: dir})
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

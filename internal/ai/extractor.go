package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = eris.New("ai: empty response from model")

// Extractor turns a raw listing into a typed extraction using an LLM.
type Extractor struct {
	client     Client
	maxRetries int
	retryDelay time.Duration
	log        *zap.Logger
}

// NewClient picks the provider named in the config.
func NewClient(cfg config.AIConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicKey, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderGroq:
		return NewGroqClient(cfg.GroqKey, cfg.Model, "", cfg.MaxTokens), nil
	default:
		return nil, eris.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}

func NewExtractor(client Client, cfg config.AIConfig, log *zap.Logger) *Extractor {
	return &Extractor{
		client:     client,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        log.Named("ai." + client.Name()),
	}
}

// Extract asks the model for the structured attributes of one job. Transport
// failures and empty replies are retried; malformed JSON is not, since the
// same prompt tends to produce the same output.
func (e *Extractor) Extract(ctx context.Context, job models.RawJob) (*models.Extraction, error) {
	system := buildSystemPrompt()
	user := buildUserPrompt(job)

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			wait := e.retryDelay * time.Duration(attempt)
			e.log.Warn("⚠️ Extraction failed, retrying",
				zap.String("url", job.URL),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, eris.Wrap(err, "ai: extraction cancelled")
			}
		}

		text, err := e.client.Complete(ctx, system, user)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "ai: extraction cancelled")
			}
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = ErrEmptyResponse
			continue
		}

		ext, err := parseExtraction(text)
		if err != nil {
			e.log.Error("❌ Could not parse model output",
				zap.String("url", job.URL),
				zap.Int("length", len(text)),
				zap.Error(err),
			)
			return nil, err
		}
		e.log.Info("🤖 Extracted job data",
			zap.String("url", job.URL),
			zap.String("title", ext.JobTitle.String()),
		)
		return ext, nil
	}

	return nil, eris.Wrapf(lastErr, "ai: extraction failed for %s", job.URL)
}

// parseExtraction decodes the model reply after stripping markdown fences.
func parseExtraction(text string) (*models.Extraction, error) {
	cleaned := cleanMarkdownJSON(text)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}
	var ext models.Extraction
	if err := json.Unmarshal([]byte(cleaned), &ext); err != nil {
		return nil, eris.Wrapf(err, "ai: unmarshal extraction (raw length: %d)", len(cleaned))
	}
	return &ext, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer  t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

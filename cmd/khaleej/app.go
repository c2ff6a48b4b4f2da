package main

import (
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/ai"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/geo"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/pipeline"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/publisher"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/render"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scraper/khaleej"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/store"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/telegram"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/validate"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

func openStore(cfg *config.Config, log *zap.Logger) *store.Store {
	return store.New(cfg.Store.RawPath(), cfg.Store.ProcessedPath(), log)
}

// buildPipeline wires every stage. It fails only on misconfiguration of a
// required integration.
func buildPipeline(cfg *config.Config, log *zap.Logger) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := ai.NewClient(cfg.AI)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(log)
	if err != nil {
		return nil, eris.Wrap(err, "init renderer")
	}

	deps := pipeline.Deps{
		Store:     openStore(cfg, log),
		Scraper:   khaleej.NewKhaleejScraper(cfg.Scrape, log),
		Extractor: ai.NewExtractor(client, cfg.AI, log),
		Validator: validate.New(cfg.Defaults, cfg.Pipeline.DeadlineDays, log),
		Renderer:  renderer,
		Publisher: publisher.NewBlogger(cfg.Blogger, log),
	}
	if enricher := geo.NewEnricher(cfg.Places, log); enricher.Enabled() {
		deps.Enricher = enricher
	}

	log.Info("🔧 Pipeline initialized",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.Bool("enrichment", deps.Enricher != nil),
	)
	return pipeline.New(deps, pipeline.OptionsFromConfig(cfg), log), nil
}

// buildScrapeOnly wires just enough for a scrape smoke test. No credentials
// are needed.
func buildScrapeOnly(cfg *config.Config, log *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Store:   openStore(cfg, log),
		Scraper: khaleej.NewKhaleejScraper(cfg.Scrape, log),
	}, pipeline.OptionsFromConfig(cfg), log)
}

// newReporter returns the run report callback, or nil when Telegram is not
// configured or cannot be reached.
func newReporter(cfg *config.Config, log *zap.Logger) *telegram.Bot {
	if !cfg.Telegram.Enabled() {
		return nil
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
	if err != nil {
		log.Warn("⚠️ Telegram unavailable, run reports disabled", zap.Error(err))
		return nil
	}
	log.Info("🤖 Telegram reports enabled")
	return bot
}

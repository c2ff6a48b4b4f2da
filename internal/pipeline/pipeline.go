package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scraper"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoExtraction is returned when the extractor yields nothing for a job.
var ErrNoExtraction = eris.New("pipeline: extractor returned no data")

// Store is the persistence the pipeline needs.
type Store interface {
	ExistingRawURLs() map[string]struct{}
	AppendRawJobs(jobs []models.RawJob) (int, error)
	UnprocessedRaw() []models.RawJob
	NextJobID() int
	AppendProcessed(job models.ProcessedJob) error
	AllProcessed() []models.ProcessedJob
}

type Extractor interface {
	Extract(ctx context.Context, job models.RawJob) (*models.Extraction, error)
}

// Enricher completes an extraction. It must return its input on failure.
type Enricher interface {
	Enrich(ctx context.Context, ext *models.Extraction) *models.Extraction
}

type Validator interface {
	Validate(raw models.RawJob, ext *models.Extraction) (models.ProcessedJob, error)
}

type Renderer interface {
	Render(job models.ProcessedJob) (string, error)
}

// Publisher posts rendered jobs. Close must be idempotent.
type Publisher interface {
	Publish(ctx context.Context, job models.ProcessedJob, doc string) error
	Close() error
}

// Deps are the collaborators of a pipeline. Enricher may be nil.
type Deps struct {
	Store     Store
	Scraper   scraper.Scraper
	Extractor Extractor
	Enricher  Enricher
	Validator Validator
	Renderer  Renderer
	Publisher Publisher
}

// Options are the policy knobs of a run.
type Options struct {
	MaxWorkers    int
	FetchDelay    time.Duration
	ProcessDelay  time.Duration
	PublishDelay  time.Duration
	PublishWindow int
}

// OptionsFromConfig reads the run policy from the loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxWorkers:    cfg.Scrape.MaxWorkers,
		FetchDelay:    cfg.Scrape.FetchDelay,
		ProcessDelay:  cfg.Pipeline.ProcessDelay,
		PublishDelay:  cfg.Pipeline.PublishDelay,
		PublishWindow: cfg.Pipeline.PublishWindow,
	}
}

// Pipeline runs scrape, process and publish in order.
type Pipeline struct {
	deps  Deps
	opts  Options
	log   *zap.Logger
	newID func() string
}

func New(deps Deps, opts Options, log *zap.Logger) *Pipeline {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Pipeline{
		deps:  deps,
		opts:  opts,
		log:   log.Named("pipeline"),
		newID: uuid.NewString,
	}
}

// Run executes one full pass. It never panics and always releases the
// publisher. Cancelling ctx stops the run between items.
func (p *Pipeline) Run(ctx context.Context) (res Result) {
	start := time.Now()
	res = Result{RunID: p.newID(), Status: StatusSuccess, StartedAt: start}
	log := p.log.With(zap.String("run_id", res.RunID))

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusError
			res.Message = fmt.Sprintf("panic: %v", r)
			log.Error("❌ Pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
		if err := p.deps.Publisher.Close(); err != nil {
			log.Warn("⚠️ Error during cleanup", zap.Error(err))
		}
		res.Duration = time.Since(start)
		log.Info("🏁 Pipeline finished",
			zap.String("status", string(res.Status)),
			zap.Int("scraped", res.Scraped),
			zap.Int("processed", res.Processed),
			zap.Int("published", res.Published),
			zap.Duration("duration", res.Duration),
		)
	}()

	log.Info("🚀 Starting pipeline run")

	log.Info("▶️ Phase 1: scraping new jobs")
	scraped, err := p.scrapeNew(ctx, log)
	res.Scraped = scraped
	if err != nil {
		return p.fail(ctx, res, err)
	}
	if scraped == 0 {
		res.Message = "No new jobs to process"
		log.Info("✅ No new jobs found")
		return res
	}
	if ctx.Err() != nil {
		return interrupted(res)
	}

	log.Info("▶️ Phase 2: processing new jobs")
	res.Processed = p.processPending(ctx, log)
	if ctx.Err() != nil {
		return interrupted(res)
	}

	log.Info("▶️ Phase 3: publishing jobs")
	res.Published = p.publishRecent(ctx, log)
	if ctx.Err() != nil {
		return interrupted(res)
	}
	return res
}

func (p *Pipeline) fail(ctx context.Context, res Result, err error) Result {
	if ctx.Err() != nil {
		return interrupted(res)
	}
	res.Status = StatusError
	res.Message = err.Error()
	p.log.Error("❌ Critical error in pipeline run", zap.String("run_id", res.RunID), zap.Error(err))
	return res
}

func interrupted(res Result) Result {
	res.Status = StatusInterrupted
	res.Message = "run interrupted"
	return res
}

// processPending runs extraction, enrichment, validation and storage for
// every unprocessed raw job, one at a time.
func (p *Pipeline) processPending(ctx context.Context, log *zap.Logger) int {
	pending := p.deps.Store.UnprocessedRaw()
	if len(pending) == 0 {
		log.Info("No unprocessed jobs found")
		return 0
	}
	log.Info("🤖 Processing unprocessed jobs", zap.Int("count", len(pending)))

	// Items run to completion even when ctx is cancelled mid-way.
	itemCtx := context.WithoutCancel(ctx)

	processed := 0
	for i, raw := range pending {
		if i > 0 {
			if err := sleep(ctx, p.opts.ProcessDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		job, err := p.processOne(itemCtx, raw)
		if err != nil {
			log.Warn("⚠️ Failed to process job",
				zap.String("url", raw.URL),
				zap.Int("index", i+1),
				zap.Int("total", len(pending)),
				zap.Error(err),
			)
			continue
		}
		processed++
		log.Info("✅ Processed job",
			zap.String("title", job.Title),
			zap.String("company", job.ShortName),
			zap.Int("job_id", job.JobValueID),
		)
	}

	log.Info("Processing phase complete", zap.Int("processed", processed), zap.Int("total", len(pending)))
	return processed
}

func (p *Pipeline) processOne(ctx context.Context, raw models.RawJob) (job models.ProcessedJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic processing %s: %v", raw.URL, r)
		}
	}()

	ext, err := p.deps.Extractor.Extract(ctx, raw)
	if err != nil {
		return job, err
	}
	if ext == nil {
		return job, ErrNoExtraction
	}
	if p.deps.Enricher != nil {
		if enriched := p.deps.Enricher.Enrich(ctx, ext); enriched != nil {
			ext = enriched
		}
	}

	job, err = p.deps.Validator.Validate(raw, ext)
	if err != nil {
		return job, err
	}

	// IDs are assigned only after validation so rejected jobs never use one.
	job.JobValueID = p.deps.Store.NextJobID()
	if err := p.deps.Store.AppendProcessed(job); err != nil {
		return job, err
	}
	return job, nil
}

// publishRecent renders and publishes the most recent processed jobs. There
// is no published marker, so every run reconsiders the same window.
func (p *Pipeline) publishRecent(ctx context.Context, log *zap.Logger) int {
	jobs := p.deps.Store.AllProcessed()
	if len(jobs) > p.opts.PublishWindow {
		jobs = jobs[:p.opts.PublishWindow]
	}
	if len(jobs) == 0 {
		log.Info("No jobs ready for publishing")
		return 0
	}
	log.Info("📤 Publishing jobs", zap.Int("count", len(jobs)))

	itemCtx := context.WithoutCancel(ctx)

	published := 0
	for i, job := range jobs {
		if i > 0 {
			if err := sleep(ctx, p.opts.PublishDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		if err := p.publishOne(itemCtx, job); err != nil {
			log.Warn("❌ Failed to publish",
				zap.String("title", job.Title),
				zap.Int("job_id", job.JobValueID),
				zap.Error(err),
			)
			continue
		}
		published++
		log.Info("✅ Published job", zap.String("title", job.Title), zap.Int("job_id", job.JobValueID))
	}

	log.Info("Publishing phase complete", zap.Int("published", published), zap.Int("total", len(jobs)))
	return published
}

func (p *Pipeline) publishOne(ctx context.Context, job models.ProcessedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic publishing %q: %v", job.Title, r)
		}
	}()

	doc, err := p.deps.Renderer.Render(job)
	if err != nil {
		return err
	}
	if doc == "" {
		return eris.Errorf("pipeline: empty document for %q", job.Title)
	}
	return p.deps.Publisher.Publish(ctx, job, doc)
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

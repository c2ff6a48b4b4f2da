package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scraper"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// scrapeNew collects the listing URLs not yet stored, fetches their details
// and appends the results to the raw store. It returns how many jobs were
// added.
func (p *Pipeline) scrapeNew(ctx context.Context, log *zap.Logger) (int, error) {
	urls, err := p.newURLs(ctx)
	if err != nil {
		return 0, err
	}
	if len(urls) == 0 {
		return 0, nil
	}
	log.Info("🔍 Found new job URLs", zap.Int("count", len(urls)), zap.String("source", p.deps.Scraper.Name()))

	jobs := p.fetchDetails(ctx, urls, log)
	if len(jobs) == 0 {
		log.Warn("⚠️ No job details could be fetched", zap.Int("urls", len(urls)))
		return 0, nil
	}

	added, err := p.deps.Store.AppendRawJobs(jobs)
	if err != nil {
		log.Error("❌ Failed to store raw jobs", zap.Error(err))
		return 0, nil
	}
	log.Info("💾 Stored raw jobs", zap.Int("added", added), zap.Int("fetched", len(jobs)))
	return added, nil
}

// newURLs returns the listed URLs without a raw record, sorted for a stable
// fetch order.
func (p *Pipeline) newURLs(ctx context.Context) ([]string, error) {
	all, err := p.deps.Scraper.AllURLs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list job urls")
	}
	existing := p.deps.Store.ExistingRawURLs()

	urls := make([]string, 0, len(all))
	for u := range all {
		if _, ok := existing[u]; !ok {
			urls = append(urls, u)
		}
	}
	slices.Sort(urls)
	return urls, nil
}

// fetchDetails fetches every URL with at most MaxWorkers requests in flight.
// Failed URLs are logged and left out; they are retried on the next run.
func (p *Pipeline) fetchDetails(ctx context.Context, urls []string, log *zap.Logger) []models.RawJob {
	limit := rate.Inf
	if p.opts.FetchDelay > 0 {
		limit = rate.Every(p.opts.FetchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)
	itemCtx := context.WithoutCancel(ctx)

	var (
		mu   sync.Mutex
		jobs = make([]models.RawJob, 0, len(urls))
	)

	g := new(errgroup.Group)
	g.SetLimit(p.opts.MaxWorkers)
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			job, err := p.fetchOne(itemCtx, u)
			if err != nil {
				if errors.Is(err, scraper.ErrNoDetails) {
					log.Debug("Listing has no details block", zap.String("url", u))
				} else {
					log.Warn("⚠️ Failed to fetch job details", zap.String("url", u), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			jobs = append(jobs, *job)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Keep the store order deterministic regardless of completion order.
	slices.SortFunc(jobs, func(a, b models.RawJob) int {
		switch {
		case a.URL < b.URL:
			return -1
		case a.URL > b.URL:
			return 1
		}
		return 0
	})
	return jobs
}

func (p *Pipeline) fetchOne(ctx context.Context, url string) (job *models.RawJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic fetching %s: %v", url, r)
		}
	}()
	job, err = p.deps.Scraper.Details(ctx, url)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, scraper.ErrNoDetails
	}
	return job, nil
}

// ScrapeTest fetches up to limit new jobs without touching the store or any
// later phase.
func (p *Pipeline) ScrapeTest(ctx context.Context, limit int) ([]models.RawJob, error) {
	urls, err := p.newURLs(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	p.log.Info("🧪 Scrape test", zap.Int("urls", len(urls)))
	if len(urls) == 0 {
		return nil, nil
	}
	return p.fetchDetails(ctx, urls, p.log), nil
}

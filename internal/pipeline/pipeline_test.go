package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/store"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScraper struct {
	urls    []string
	listErr error
	failing map[string]bool
	calls   int
	mu      sync.Mutex
}

func (f *fakeScraper) AllURLs(context.Context) (map[string]struct{}, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]struct{}, len(f.urls))
	for _, u := range f.urls {
		out[u] = struct{}{}
	}
	return out, nil
}

func (f *fakeScraper) Details(_ context.Context, url string) (*models.RawJob, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failing[url] {
		return nil, errors.New("boom")
	}
	return &models.RawJob{URL: url, Description: "Job at " + url}, nil
}

func (f *fakeScraper) Name() string { return "fake" }

type fakeExtractor struct {
	failing map[string]bool
	panics  map[string]bool
}

func (f *fakeExtractor) Extract(_ context.Context, job models.RawJob) (*models.Extraction, error) {
	if f.panics[job.URL] {
		panic("extractor exploded")
	}
	if f.failing[job.URL] {
		return nil, errors.New("model unavailable")
	}
	return &models.Extraction{}, nil
}

type fakeValidator struct {
	rejected map[string]bool
}

func (f *fakeValidator) Validate(raw models.RawJob, _ *models.Extraction) (models.ProcessedJob, error) {
	if f.rejected[raw.URL] {
		return models.ProcessedJob{}, validate.ErrRejected
	}
	return models.ProcessedJob{URL: raw.URL, Title: "Title " + raw.URL}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(job models.ProcessedJob) (string, error) {
	return "<html>" + job.Title + "</html>", nil
}

type fakePublisher struct {
	published []models.ProcessedJob
	closed    int
	panicOn   string
}

func (f *fakePublisher) Publish(_ context.Context, job models.ProcessedJob, _ string) error {
	if job.URL == f.panicOn {
		panic("browser crashed")
	}
	f.published = append(f.published, job)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed++
	return nil
}

type harness struct {
	store     *store.Store
	scraper   *fakeScraper
	extractor *fakeExtractor
	validator *fakeValidator
	publisher *fakePublisher
	pipeline  *Pipeline
}

func newHarness(t *testing.T, urls ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		store:     store.New(filepath.Join(dir, "jobs.json"), filepath.Join(dir, "processed_jobs.json"), zap.NewNop()),
		scraper:   &fakeScraper{urls: urls, failing: map[string]bool{}},
		extractor: &fakeExtractor{failing: map[string]bool{}, panics: map[string]bool{}},
		validator: &fakeValidator{rejected: map[string]bool{}},
		publisher: &fakePublisher{},
	}
	h.pipeline = New(Deps{
		Store:     h.store,
		Scraper:   h.scraper,
		Extractor: h.extractor,
		Validator: h.validator,
		Renderer:  fakeRenderer{},
		Publisher: h.publisher,
	}, Options{MaxWorkers: 2, PublishWindow: 10}, zap.NewNop())
	return h
}

func TestRun_EndToEnd(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2", "https://x/3")
	h.extractor.failing["https://x/2"] = true

	res := h.pipeline.Run(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Scraped)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Published)
	assert.Len(t, h.publisher.published, 2)
	assert.Equal(t, 1, h.publisher.closed)

	pending := h.store.UnprocessedRaw()
	require.Len(t, pending, 1)
	assert.Equal(t, "https://x/2", pending[0].URL)
}

func TestRun_NoNewURLs(t *testing.T) {
	h := newHarness(t, "https://x/1")
	_, err := h.store.AppendRawJobs([]models.RawJob{{URL: "https://x/1"}})
	require.NoError(t, err)

	res := h.pipeline.Run(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "No new jobs to process", res.Message)
	assert.Zero(t, h.scraper.calls)
	assert.Empty(t, h.publisher.published)
	assert.Equal(t, 1, h.publisher.closed)
}

func TestRun_AssignsSequentialIDs(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2", "https://x/3")
	require.NoError(t, h.store.AppendProcessed(models.ProcessedJob{URL: "https://old", JobValueID: 40}))

	res := h.pipeline.Run(context.Background())
	require.Equal(t, 3, res.Processed)

	ids := map[string]int{}
	for _, job := range h.store.AllProcessed() {
		ids[job.URL] = job.JobValueID
	}
	assert.Equal(t, map[string]int{
		"https://old": 40,
		"https://x/1": 41,
		"https://x/2": 42,
		"https://x/3": 43,
	}, ids)
}

func TestRun_RejectedJobDoesNotConsumeID(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2", "https://x/3")
	h.validator.rejected["https://x/2"] = true

	res := h.pipeline.Run(context.Background())
	assert.Equal(t, 2, res.Processed)

	ids := map[string]int{}
	for _, job := range h.store.AllProcessed() {
		ids[job.URL] = job.JobValueID
	}
	assert.Equal(t, map[string]int{"https://x/1": 1, "https://x/3": 2}, ids)
}

func TestRun_FailedFetchIsRetriedNextRun(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2")
	h.scraper.failing["https://x/2"] = true

	res := h.pipeline.Run(context.Background())
	assert.Equal(t, 1, res.Scraped)

	h.scraper.failing["https://x/2"] = false
	res = h.pipeline.Run(context.Background())
	assert.Equal(t, 1, res.Scraped)
	assert.Len(t, h.store.AllRaw(), 2)
}

func TestRun_ItemPanicIsIsolated(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2")
	h.extractor.panics["https://x/1"] = true
	h.publisher.panicOn = "https://x/2"

	res := h.pipeline.Run(context.Background())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Processed)
	assert.Zero(t, res.Published)
	assert.Equal(t, 1, h.publisher.closed)
}

func TestRun_ListErrorReportsError(t *testing.T) {
	h := newHarness(t)
	h.scraper.listErr = errors.New("site down")

	res := h.pipeline.Run(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "site down")
	assert.Equal(t, 1, h.publisher.closed)
}

func TestRun_CancelledContextIsInterrupted(t *testing.T) {
	h := newHarness(t, "https://x/1")
	h.scraper.listErr = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.pipeline.Run(ctx)

	assert.Equal(t, StatusInterrupted, res.Status)
	assert.Equal(t, 1, h.publisher.closed)
}

func TestRun_PublishWindow(t *testing.T) {
	h := newHarness(t, "https://x/1", "https://x/2", "https://x/3")
	h.pipeline.opts.PublishWindow = 2

	res := h.pipeline.Run(context.Background())

	assert.Equal(t, 3, res.Processed)
	require.Len(t, h.publisher.published, 2)
	// Most recent first: the last processed job is published first.
	assert.Equal(t, "https://x/3", h.publisher.published[0].URL)
	assert.Equal(t, "https://x/2", h.publisher.published[1].URL)
}

func TestScrapeTest_DoesNotWrite(t *testing.T) {
	h := newHarness(t, "https://x/3", "https://x/1", "https://x/2")

	jobs, err := h.pipeline.ScrapeTest(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://x/1", jobs[0].URL)
	assert.Equal(t, "https://x/2", jobs[1].URL)
	assert.Empty(t, h.store.AllRaw())
	assert.Zero(t, h.publisher.closed)
}

func TestResult_String(t *testing.T) {
	res := Result{Status: StatusSuccess, Scraped: 3, Processed: 2, Published: 1}
	assert.Equal(t, "status=success scraped=3 processed=2 published=1 duration=0s", res.String())
}

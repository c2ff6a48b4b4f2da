package khaleej

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scraper reads the Khaleej Times buzzon job listings.
type Scraper struct {
	cfg    config.ScrapeConfig
	client *http.Client
	log    *zap.Logger
	now    func() time.Time
}

var _ scraper.Scraper = (*Scraper)(nil)

func NewKhaleejScraper(cfg config.ScrapeConfig, log *zap.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.Named("scraper.khaleej"),
		now:    time.Now,
	}
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func (s *Scraper) WithHTTPClient(c *http.Client) *Scraper {
	s.client = c
	return s
}

func (s *Scraper) Name() string {
	return "KhaleejTimes"
}

// AllURLs walks every listing page concurrently and collects job links.
// Pages that fail are logged and contribute nothing.
func (s *Scraper) AllURLs(ctx context.Context) (map[string]struct{}, error) {
	total := s.totalPages(ctx)
	s.log.Info("📄 Found listing pages", zap.Int("pages", total))

	var (
		mu   sync.Mutex
		urls = make(map[string]struct{})
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxWorkers)
	for page := 1; page <= total; page++ {
		g.Go(func() error {
			found, err := s.pageURLs(ctx, page)
			if err != nil {
				s.log.Warn("⚠️ Failed to scrape listing page", zap.Int("page", page), zap.Error(err))
				return nil
			}
			mu.Lock()
			for u := range found {
				urls[u] = struct{}{}
			}
			mu.Unlock()
			s.log.Debug("Completed listing page", zap.Int("page", page), zap.Int("found", len(found)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scraper: collecting urls")
	}
	s.log.Info("🔗 Total job URLs found", zap.Int("count", len(urls)))
	return urls, nil
}

// Details fetches one job page. The description block and the details list
// must both be present.
func (s *Scraper) Details(ctx context.Context, jobURL string) (*models.RawJob, error) {
	doc, err := s.fetch(ctx, jobURL)
	if err != nil {
		return nil, err
	}

	details := doc.Find(s.cfg.Selectors.Details).First()
	description := doc.Find(s.cfg.Selectors.Description).First()
	if details.Length() == 0 || description.Length() == 0 {
		return nil, eris.Wrapf(scraper.ErrNoDetails, "url %s", jobURL)
	}

	job := &models.RawJob{
		URL:         jobURL,
		ScrapedAt:   s.now().UTC().Format(time.RFC3339),
		Description: collapseSpace(description.Text()),
	}

	details.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := li.Find("span").First()
		if label.Length() == 0 {
			return
		}
		labelText := strings.TrimSpace(label.Text())
		field := strings.ReplaceAll(strings.ToLower(strings.TrimRight(labelText, ":")), " ", "_")
		value := strings.TrimSpace(strings.Replace(collapseSpace(li.Text()), collapseSpace(labelText), "", 1))

		if field == "email" {
			if href, ok := li.Find("a").First().Attr("href"); ok && href != "" {
				value = strings.TrimPrefix(href, "mailto:")
			}
		}
		if !job.SetDetail(field, value) {
			s.log.Debug("Ignoring unknown detail field", zap.String("field", field), zap.String("url", jobURL))
		}
	})
	return job, nil
}

func (s *Scraper) totalPages(ctx context.Context) int {
	doc, err := s.fetch(ctx, s.cfg.BaseURL)
	if err != nil {
		s.log.Warn("⚠️ Could not read page count, assuming one page", zap.Error(err))
		return 1
	}
	fields := strings.Fields(doc.Find(s.cfg.Selectors.Pages).First().Text())
	if len(fields) == 0 {
		return 1
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *Scraper) pageURLs(ctx context.Context, page int) (map[string]struct{}, error) {
	pageURL := s.cfg.BaseURL + "page/" + strconv.Itoa(page) + "/"
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)
	urls := make(map[string]struct{})
	doc.Find(s.cfg.Selectors.URLs).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		if abs, ok := absoluteHTTPURL(base, href); ok {
			urls[abs] = struct{}{}
		}
	})
	return urls, nil
}

// absoluteHTTPURL resolves href against base and keeps only http(s) links.
func absoluteHTTPURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

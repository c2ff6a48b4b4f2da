package khaleej

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const detailHTML = `<html><body>
<div class="single-main">
  <p>We are hiring a   Sales Executive
  in Dubai.</p>
</div>
<div class="bigright"><ul>
  <li><span>Industry:</span> Retail</li>
  <li><span>Job Location:</span> Dubai</li>
  <li><span>Salary:</span> AED 5000</li>
  <li><span>Email:</span> <a href="mailto:hr@acme.ae">Send email</a></li>
  <li><span>Nationality:</span> Any</li>
  <li>no label here</li>
</ul></div>
</body></html>`

func listingPage(links ...string) string {
	body := `<html><body>`
	for _, l := range links {
		body += fmt.Sprintf(`<div class="post-left"><a href="%s">job</a></div>`, l)
	}
	return body + `</body></html>`
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="paging"><div class="pages"><span class="total">Page 1 of 2</span></div></div>`)
	})
	mux.HandleFunc("/jobs/page/1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("/ad/1", "/ad/2", "mailto:someone@x.com"))
	})
	mux.HandleFunc("/jobs/page/2/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("/ad/2", "/ad/3", ""))
	})
	mux.HandleFunc("/ad/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailHTML)
	})
	mux.HandleFunc("/ad/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>removed</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.ScrapeConfig {
	return config.ScrapeConfig{
		BaseURL:    baseURL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Timeout:    5 * time.Second,
		MaxWorkers: 2,
		Selectors: config.Selectors{
			Pages:       "div.paging > div.pages > span.total",
			URLs:        "div.post-left > a",
			Description: "div.single-main",
			Details:     "div.bigright ul",
		},
	}
}

func TestAllURLs(t *testing.T) {
	srv := newSite(t)
	s := NewKhaleejScraper(testConfig(srv.URL+"/jobs/"), zap.NewNop())

	urls, err := s.AllURLs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]struct{}{
		srv.URL + "/ad/1": {},
		srv.URL + "/ad/2": {},
		srv.URL + "/ad/3": {},
	}, urls)
}

func TestAllURLs_NoPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("https://example.com/ad/9"))
	}))
	defer srv.Close()

	s := NewKhaleejScraper(testConfig(srv.URL+"/"), zap.NewNop())
	urls, err := s.AllURLs(context.Background())
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}

func TestDetails(t *testing.T) {
	srv := newSite(t)
	s := NewKhaleejScraper(testConfig(srv.URL+"/jobs/"), zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	job, err := s.Details(context.Background(), srv.URL+"/ad/1")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/ad/1", job.URL)
	assert.Equal(t, "2024-01-02T03:04:05Z", job.ScrapedAt)
	assert.Equal(t, "We are hiring a Sales Executive in Dubai.", job.Description)
	assert.Equal(t, "Retail", job.Industry)
	assert.Equal(t, "Dubai", job.JobLocation)
	assert.Equal(t, "AED 5000", job.Salary)
	assert.Equal(t, "hr@acme.ae", job.Email)
}

func TestDetails_MissingBlocks(t *testing.T) {
	srv := newSite(t)
	s := NewKhaleejScraper(testConfig(srv.URL+"/jobs/"), zap.NewNop())

	_, err := s.Details(context.Background(), srv.URL+"/ad/empty")
	assert.True(t, errors.Is(err, scraper.ErrNoDetails))
}

func TestDetails_NotFound(t *testing.T) {
	srv := newSite(t)
	s := NewKhaleejScraper(testConfig(srv.URL+"/jobs/"), zap.NewNop())

	_, err := s.Details(context.Background(), srv.URL+"/ad/404")
	assert.Error(t, err)
}

func TestFetch_RetriesAfter429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, "pipeline-test", r.Header.Get("User-Agent"))
		c, err := r.Cookie("PHPSESSID")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", c.Value)
		}
		fmt.Fprint(w, detailHTML)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/")
	cfg.Headers = map[string]string{"User-Agent": "pipeline-test"}
	cfg.Cookies = map[string]string{"PHPSESSID": "abc"}
	s := NewKhaleejScraper(cfg, zap.NewNop())

	job, err := s.Details(context.Background(), srv.URL+"/ad/1")
	require.NoError(t, err)
	assert.Equal(t, "Retail", job.Industry)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewKhaleejScraper(testConfig(srv.URL+"/"), zap.NewNop())
	_, err := s.fetch(context.Background(), srv.URL+"/x")
	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_TransportErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	s := NewKhaleejScraper(testConfig(addr+"/"), zap.NewNop())
	_, err := s.fetch(context.Background(), addr+"/x")
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3", time.Second))
	assert.Equal(t, time.Second, retryAfter("", time.Second))
	assert.Equal(t, time.Second, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT", time.Second))
}

func TestAbsoluteHTTPURL(t *testing.T) {
	base, _ := url.Parse("https://buzzon.khaleejtimes.com/ad-category/jobs-vacancies/page/2/")
	got, ok := absoluteHTTPURL(base, "/ads/driver-wanted/")
	assert.True(t, ok)
	assert.Equal(t, "https://buzzon.khaleejtimes.com/ads/driver-wanted/", got)

	_, ok = absoluteHTTPURL(base, "javascript:void(0)")
	assert.False(t, ok)
}

package khaleej

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// fetch GETs a page and parses it. Transport errors are retried with a
// linearly growing delay and 429 responses honour Retry-After. Any other
// non-200 status fails immediately.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "scraper: build request %s", pageURL)
		}
		for k, v := range s.cfg.Headers {
			req.Header.Set(k, v)
		}
		for name, value := range s.cfg.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "scraper: fetch cancelled")
			}
			lastErr = err
			wait := s.cfg.RetryDelay * time.Duration(attempt+1)
			s.log.Warn("⚠️ Request failed, retrying",
				zap.String("url", pageURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, eris.Wrap(err, "scraper: fetch cancelled")
			}
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			doc, err := goquery.NewDocumentFromReader(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, eris.Wrapf(err, "scraper: parse %s", pageURL)
			}
			return doc, nil
		case http.StatusTooManyRequests:
			resp.Body.Close()
			wait := retryAfter(resp.Header.Get("Retry-After"), s.cfg.RetryDelay)
			lastErr = eris.Errorf("scraper: rate limited on %s", pageURL)
			s.log.Warn("⏳ Rate limited, waiting", zap.String("url", pageURL), zap.Duration("wait", wait))
			if err := sleep(ctx, wait); err != nil {
				return nil, eris.Wrap(err, "scraper: fetch cancelled")
			}
		default:
			resp.Body.Close()
			return nil, eris.Errorf("scraper: %s returned status %d", pageURL, resp.StatusCode)
		}
	}

	s.log.Error("❌ Max retries reached", zap.String("url", pageURL))
	return nil, eris.Wrapf(lastErr, "scraper: giving up on %s", pageURL)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(header string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
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

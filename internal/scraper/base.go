// Define the capability interface for listing scrapers

package scraper

import (
	"context"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
)

// ErrNoDetails is returned when a listing page has no job details block.
var ErrNoDetails = eris.New("scraper: no job details on page")

// Scraper defines what the pipeline needs from a listings site.
type Scraper interface {
	// AllURLs returns every job URL currently listed on the site.
	AllURLs(ctx context.Context) (map[string]struct{}, error)

	// Details fetches one listing and returns it as a raw job.
	Details(ctx context.Context, url string) (*models.RawJob, error)

	// Name is the site name used in logs.
	Name() string
}

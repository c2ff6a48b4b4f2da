package geo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	findPlaceURL    = "https://maps.googleapis.com/maps/api/place/findplacefromtext/json"
	placeDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"

	defaultPostalCode = "00000"
)

// Address is the subset of a Places result the pipeline cares about.
type Address struct {
	Street     string
	Locality   string
	Region     string
	PostalCode string
}

type findPlaceResponse struct {
	Candidates []struct {
		PlaceID          string `json:"place_id"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"candidates"`
	Status string `json:"status"`
}

type placeDetailsResponse struct {
	Result struct {
		FormattedAddress string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"result"`
	Status string `json:"status"`
}

// Enricher fills missing address fields of an extraction from Google Places.
type Enricher struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewEnricher builds an enricher. With an empty API key Enrich is a no-op.
func NewEnricher(cfg config.PlacesConfig, log *zap.Logger) *Enricher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Enricher{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		log:        log.Named("geo"),
	}
}

// Enabled reports whether an API key is configured.
func (e *Enricher) Enabled() bool {
	return e.apiKey != ""
}

// Enrich looks up "{shortName} {jobCountry}" and fills only the empty address
// fields. Lookup failures leave the extraction unchanged.
func (e *Enricher) Enrich(ctx context.Context, ext *models.Extraction) *models.Extraction {
	if ext == nil || !e.Enabled() {
		return ext
	}
	shortName := ext.ShortName.String()
	country := ext.JobCountry.String()
	if shortName == "" || country == "" {
		return ext
	}

	query := shortName + " " + country
	addr, err := e.Lookup(ctx, query)
	if err != nil {
		e.log.Warn("⚠️ Place lookup failed", zap.String("query", query), zap.Error(err))
		return ext
	}
	if addr == nil {
		e.log.Debug("No place found", zap.String("query", query))
		return ext
	}

	out := *ext
	city := ext.JobCity.String()
	fill := func(field *models.FlexString, values ...string) {
		if field.String() != "" {
			return
		}
		for _, v := range values {
			if v != "" {
				*field = models.FlexString(v)
				return
			}
		}
	}
	fill(&out.StreetAddress, addr.Street, city, country)
	fill(&out.AddressLocality, addr.Locality, city, country)
	fill(&out.AddressRegion, addr.Region, city, country)
	fill(&out.PostalCode, addr.PostalCode, defaultPostalCode)

	e.log.Info("📍 Enriched location",
		zap.String("query", query),
		zap.String("locality", out.AddressLocality.String()),
	)
	return &out
}

// Lookup resolves a free-text query to an address. It returns nil, nil when
// Places has no candidate.
func (e *Enricher) Lookup(ctx context.Context, query string) (*Address, error) {
	var found findPlaceResponse
	err := e.get(ctx, findPlaceURL, url.Values{
		"input":     {query},
		"inputtype": {"textquery"},
		"fields":    {"place_id,formatted_address"},
		"key":       {e.apiKey},
	}, &found)
	if err != nil {
		return nil, err
	}
	if len(found.Candidates) == 0 || found.Candidates[0].PlaceID == "" {
		return nil, nil
	}

	var details placeDetailsResponse
	err = e.get(ctx, placeDetailsURL, url.Values{
		"place_id": {found.Candidates[0].PlaceID},
		"fields":   {"formatted_address,address_component"},
		"key":      {e.apiKey},
	}, &details)
	if err != nil {
		return nil, err
	}

	var addr Address
	var route, sublocality string
	for _, c := range details.Result.AddressComponents {
		switch {
		case slices.Contains(c.Types, "postal_code"):
			addr.PostalCode = c.LongName
		case slices.Contains(c.Types, "route"):
			route = c.LongName
		case slices.Contains(c.Types, "sublocality"):
			sublocality = c.LongName
		case slices.Contains(c.Types, "administrative_area_level_1"):
			addr.Region = c.LongName
		case slices.Contains(c.Types, "locality"):
			addr.Locality = c.LongName
		}
	}
	switch {
	case route != "" && sublocality != "":
		addr.Street = route + ", " + sublocality
	case route != "":
		addr.Street = route
	default:
		addr.Street = sublocality
	}
	return &addr, nil
}

func (e *Enricher) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geo: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "geo: build request")
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "geo: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geo: places returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "geo: read body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "geo: parse response")
	}
	return nil
}

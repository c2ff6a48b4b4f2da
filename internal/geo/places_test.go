package geo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const placesPrefix = "https://maps.googleapis.com/maps/api/place"

// newRewriteClient sends every Places request to the test server.
func newRewriteClient(testServerURL string) *http.Client {
	return &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, testServer: testServerURL}}
}

type rewriteTransport struct {
	base       http.RoundTripper
	testServer string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, placesPrefix) {
		return t.base.RoundTrip(req)
	}
	parsed, err := req.URL.Parse(t.testServer + origURL[len(placesPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}

func newTestEnricher(t *testing.T, handler http.HandlerFunc) *Enricher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Enricher{
		apiKey:     "test-key",
		httpClient: newRewriteClient(srv.URL),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		log:        zap.NewNop(),
	}
}

func placesHandler(details string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/findplacefromtext/json"):
			if r.URL.Query().Get("input") == "Nobody United Arab Emirates" {
				_, _ = io.WriteString(w, `{"candidates": [], "status": "ZERO_RESULTS"}`)
				return
			}
			_, _ = io.WriteString(w, `{"candidates": [{"place_id": "abc", "formatted_address": "x"}], "status": "OK"}`)
		case strings.HasSuffix(r.URL.Path, "/details/json"):
			if r.URL.Query().Get("place_id") != "abc" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, details)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

const fullDetails = `{"status": "OK", "result": {"address_components": [
	{"long_name": "Sheikh Zayed Road", "types": ["route"]},
	{"long_name": "Al Barsha", "types": ["sublocality", "political"]},
	{"long_name": "Dubai", "types": ["locality", "political"]},
	{"long_name": "Dubai Emirate", "types": ["administrative_area_level_1", "political"]},
	{"long_name": "12345", "types": ["postal_code"]}
]}}`

func TestLookup(t *testing.T) {
	e := newTestEnricher(t, placesHandler(fullDetails))

	addr, err := e.Lookup(context.Background(), "Acme United Arab Emirates")
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, Address{
		Street:     "Sheikh Zayed Road, Al Barsha",
		Locality:   "Dubai",
		Region:     "Dubai Emirate",
		PostalCode: "12345",
	}, *addr)
}

func TestLookup_NoCandidates(t *testing.T) {
	e := newTestEnricher(t, placesHandler(fullDetails))

	addr, err := e.Lookup(context.Background(), "Nobody United Arab Emirates")
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestEnrich_FillsOnlyEmptyFields(t *testing.T) {
	e := newTestEnricher(t, placesHandler(`{"status": "OK", "result": {"address_components": [
		{"long_name": "Al Barsha", "types": ["sublocality"]}
	]}}`))

	in := &models.Extraction{
		ShortName:       "Acme",
		JobCountry:      "United Arab Emirates",
		JobCity:         "Dubai",
		AddressLocality: "Deira",
	}
	out := e.Enrich(context.Background(), in)

	assert.Equal(t, "Al Barsha", out.StreetAddress.String())
	assert.Equal(t, "Deira", out.AddressLocality.String())
	assert.Equal(t, "Dubai", out.AddressRegion.String())
	assert.Equal(t, "00000", out.PostalCode.String())
	assert.Empty(t, in.StreetAddress.String(), "input must not be mutated")
}

func TestEnrich_CountryFallbackWithoutCity(t *testing.T) {
	e := newTestEnricher(t, placesHandler(`{"status": "OK", "result": {"address_components": []}}`))

	out := e.Enrich(context.Background(), &models.Extraction{ShortName: "Acme", JobCountry: "UAE"})
	assert.Equal(t, "UAE", out.StreetAddress.String())
	assert.Equal(t, "UAE", out.AddressLocality.String())
	assert.Equal(t, "UAE", out.AddressRegion.String())
}

func TestEnrich_BestEffort(t *testing.T) {
	var calls int32
	e := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	in := &models.Extraction{ShortName: "Acme", JobCountry: "UAE"}
	assert.Same(t, in, e.Enrich(context.Background(), in))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	noName := &models.Extraction{JobCountry: "UAE"}
	assert.Same(t, noName, e.Enrich(context.Background(), noName))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEnrich_DisabledWithoutKey(t *testing.T) {
	e := NewEnricher(config.PlacesConfig{RateLimit: 5}, zap.NewNop())
	in := &models.Extraction{ShortName: "Acme", JobCountry: "UAE"}

	assert.False(t, e.Enabled())
	assert.Same(t, in, e.Enrich(context.Background(), in))
}

// Package geocode resolves free-text place names to coordinates via a
// Nominatim-compatible search service.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rrf-map/internal/monitoring"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Geocoder looks up places matching a free-text query.
type Geocoder interface {
	// Search returns at most limit places, best match first.
	Search(ctx context.Context, q string, limit int) ([]Place, error)
}

// Place is one search result.
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage
// policy allows one request per second.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

// WithMetrics records lookup outcomes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	metrics    *monitoring.Metrics
}

// NewClient creates a Nominatim Geocoder with the given options.
func NewClient(opts ...Option) Geocoder {
	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		baseURL:    DefaultBaseURL,
		userAgent:  "rrf-map/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult mirrors Nominatim's jsonv1 output, which encodes
// coordinates as strings.
type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (c *client) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}

	places, err := c.search(ctx, q, limit)
	switch {
	case err != nil:
		c.observe("error")
	case len(places) == 0:
		c.observe("empty")
	default:
		c.observe("success")
	}
	return places, err
}

func (c *client) search(ctx context.Context, q string, limit int) ([]Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"format": {"json"},
		"limit":  {strconv.Itoa(limit)},
		"q":      {q},
	}
	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
		if errLat != nil || errLon != nil || !validLatLon(lat, lon) {
			zap.L().Debug("geocode: skipping result with bad coordinates",
				zap.String("display_name", r.DisplayName),
				zap.String("lat", r.Lat),
				zap.String("lon", r.Lon),
			)
			continue
		}
		places = append(places, Place{DisplayName: r.DisplayName, Lat: lat, Lon: lon})
	}
	return places, nil
}

func (c *client) observe(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
}

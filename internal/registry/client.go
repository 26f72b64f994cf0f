// Package registry pages through the public licence search API of the
// radio frequency register.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/resilience"
)

// DefaultAPIURL is the public licence search endpoint.
const DefaultAPIURL = "https://rrf.rsm.govt.nz/api/public_search/licence"

const (
	origin  = "https://rrf.rsm.govt.nz"
	referer = "https://rrf.rsm.govt.nz/ui/app/search/licence"
)

// Query selects the licences to retrieve.
type Query struct {
	LicenceType int
	OrderBy     string
	Suppressed  bool
	PageSize    int
	// MaxPages caps the pages fetched; zero fetches all.
	MaxPages int
	// Sleep pauses between page requests.
	Sleep time.Duration
}

// DefaultQuery returns the cellular licence query.
func DefaultQuery() Query {
	return Query{LicenceType: 178, OrderBy: "id desc", PageSize: 5000}
}

// Page is one decoded search response.
type Page struct {
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Results    []model.RawRecord `json:"results"`
}

// Summary describes a completed retrieval.
type Summary struct {
	TotalPages int
	TotalItems int
	Fetched    int
	Pages      int
}

// PageFunc observes each page as it arrives.
type PageFunc func(page int, p *Page)

// Options configures a Client.
type Options struct {
	APIURL     string
	UserAgent  string
	Timeout    time.Duration
	RatePerSec float64
	Retry      resilience.RetryConfig
}

// Client is a paging client for the licence search API.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	clock   clockwork.Clock
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used for the pause between pages.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
		c.opts.Retry.Clock = clock
	}
}

// NewClient creates a Client.
func NewClient(opts Options, optFns ...Option) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "rrf-map/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("registry", "search")
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	c := &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		clock:   clockwork.NewRealClock(),
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// payload mirrors the body the register's web search sends.
type payload struct {
	SearchText        string `json:"searchText"`
	Suppressed        bool   `json:"suppressed"`
	MapVisible        string `json:"mapVisible"`
	DisplayGeorefType string `json:"displayGeorefType"`
	OrderBy           string `json:"orderBy"`
	LicenceType       []int  `json:"licenceType"`
	IsSearchVisible   string `json:"isSearchVisible"`
	IsRelevanceSort   string `json:"isRelevanceSort"`
	PageSize          int    `json:"pageSize"`
	Page              int    `json:"page"`
}

func newPayload(q Query, page int) payload {
	return payload{
		Suppressed:        q.Suppressed,
		MapVisible:        "false",
		DisplayGeorefType: "T",
		OrderBy:           q.OrderBy,
		LicenceType:       []int{q.LicenceType},
		IsSearchVisible:   "true",
		IsRelevanceSort:   "false",
		PageSize:          q.PageSize,
		Page:              page,
	}
}

// FetchPage requests one page with retries. A 401 fails without retrying.
func (c *Client) FetchPage(ctx context.Context, q Query, page int) (*Page, error) {
	body, err := json.Marshal(newPayload(q, page))
	if err != nil {
		return nil, eris.Wrap(err, "registry: marshal payload")
	}

	p, err := resilience.DoVal(ctx, c.opts.Retry, func(ctx context.Context) (*Page, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "registry: fetch page %d", page)
	}
	return p, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, resilience.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resilience.NewStatusError(resp.StatusCode, data)
	}

	var p Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	return &p, nil
}

// FetchAll reads page 1 to learn the page count, then pages 2..N in order,
// concatenating results. onPage may be nil.
func (c *Client) FetchAll(ctx context.Context, q Query, onPage PageFunc) ([]model.RawRecord, Summary, error) {
	log := zap.L().With(
		zap.String("api_url", c.opts.APIURL),
		zap.Int("licence_type", q.LicenceType),
		zap.Int("page_size", q.PageSize),
	)

	first, err := c.FetchPage(ctx, q, 1)
	if err != nil {
		return nil, Summary{}, err
	}

	sum := Summary{TotalPages: first.TotalPages, TotalItems: first.TotalItems, Pages: 1}
	last := first.TotalPages
	if last < 1 {
		last = 1
	}
	if q.MaxPages > 0 && q.MaxPages < last {
		last = q.MaxPages
	}

	log.Info("registry: page 1 fetched",
		zap.Int("total_pages", first.TotalPages),
		zap.Int("total_items", first.TotalItems),
		zap.Int("pages_to_fetch", last),
	)

	records := append([]model.RawRecord(nil), first.Results...)
	if onPage != nil {
		onPage(1, first)
	}

	for page := 2; page <= last; page++ {
		if err := c.pause(ctx, q.Sleep); err != nil {
			return nil, sum, eris.Wrap(err, "registry: fetch all")
		}

		p, err := c.FetchPage(ctx, q, page)
		if err != nil {
			return nil, sum, err
		}
		records = append(records, p.Results...)
		sum.Pages++
		if onPage != nil {
			onPage(page, p)
		}

		log.Info("registry: page fetched",
			zap.Int("page", page),
			zap.Int("items", len(p.Results)),
			zap.Int("accumulated", len(records)),
		)
	}

	sum.Fetched = len(records)
	return records, sum, nil
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// ReadRaw decodes a JSON array of raw records, such as a saved API dump.
func ReadRaw(r io.Reader) ([]model.RawRecord, error) {
	var raws []model.RawRecord
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, eris.Wrap(err, "registry: decode raw records")
	}
	return raws, nil
}

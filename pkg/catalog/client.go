// Package catalog provides the client for the upstream commerce API:
// brand and item listings, single item lookups and slug resolution, with
// retries, a slug cache and degrade-to-empty listings.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rrautos/catalog-client/pkg/cache"
	"github.com/rrautos/catalog-client/pkg/logging"
	"github.com/rrautos/catalog-client/pkg/pagination"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MinScanPageSize is the smallest page size used when scanning for a slug.
const MinScanPageSize = 30

// Endpoint labels used in logs and metrics.
const (
	endpointCollections = "/collections"
	endpointProducts    = "/products"
	endpointProduct     = "/products/{id}"
)

// Client is the catalog API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	slugs      cache.Store
	collation  language.Tag
	config     Config
	logger     zerolog.Logger

	// sleep is swapped in tests to observe backoff waits.
	sleep sleepFunc
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the upstream store, e.g.
	// "https://api-ecommerce.hostinger.com/store/store_01J9S3VMVD29XN5DP0E917FH67"
	BaseURL string

	// Headers sent on every request (content negotiation, origin).
	Headers map[string]string

	// ToDate is forwarded as the to_date listing filter when set.
	ToDate string

	// Locale drives brand ordering, BCP 47 (default "es").
	Locale string

	// Retry
	Retry RetryConfig

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Slug scan
	ScanPageSize int // raised to MinScanPageSize when smaller
	MaxScanPages int // hard stop for inconsistent upstream totals

	// SlugCache stores slug → id hints (default: in-memory store)
	SlugCache cache.Store

	// CacheNamespace separates stores sharing one cache backend
	CacheNamespace string

	// HTTPClient overrides the default client (Timeout is then ignored)
	HTTPClient *http.Client
}

// DefaultHeaders returns the headers sent when none are configured.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9,es;q=0.8",
	}
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Headers:      DefaultHeaders(),
		Locale:       "es",
		Retry:        DefaultRetryConfig(),
		Timeout:      15 * time.Second,
		ScanPageSize: 50,
		MaxScanPages: 200,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute URL (got %q)", cfg.BaseURL)
	}

	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.Retry.MaxRetries)
	}

	if cfg.Retry.InitialBackoff < 0 {
		return nil, fmt.Errorf("initial_backoff must be >= 0 (got %s)", cfg.Retry.InitialBackoff)
	}

	if cfg.Headers == nil {
		cfg.Headers = DefaultHeaders()
	}
	if cfg.ScanPageSize < MinScanPageSize {
		cfg.ScanPageSize = MinScanPageSize
	}
	if cfg.MaxScanPages <= 0 {
		cfg.MaxScanPages = DefaultConfig("").MaxScanPages
	}

	tag := language.Spanish
	if cfg.Locale != "" {
		parsed, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
		}
		tag = parsed
	}

	slugs := cfg.SlugCache
	if slugs == nil {
		slugs = cache.NewMemoryStore()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base.String(), "/"),
		slugs:      slugs,
		collation:  tag,
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentClient),
		sleep:      sleepContext,
	}, nil
}

// ListBrands returns every brand sorted by title for the configured locale.
func (c *Client) ListBrands(ctx context.Context) ([]Brand, error) {
	var resp listResponse
	if err := c.getJSON(ctx, endpointCollections, "/collections", nil, &resp); err != nil {
		return nil, err
	}

	brands := resp.Collections
	// Collators keep scratch buffers, one per call.
	col := collate.New(c.collation)
	slices.SortStableFunc(brands, func(a, b Brand) int {
		return col.CompareString(a.Title, b.Title)
	})

	return brands, nil
}

// FetchBrands is ListBrands that answers an empty list when the upstream
// fails after retries.
func (c *Client) FetchBrands(ctx context.Context) []Brand {
	brands, err := c.ListBrands(ctx)
	if err != nil {
		c.degrade("fetch_brands", err)
		return []Brand{}
	}
	return brands
}

// ListItems returns one listing page with resolved slugs attached.
func (c *Client) ListItems(ctx context.Context, req PageRequest) (Page, error) {
	req = req.normalized()

	query := url.Values{}
	query.Set("offset", strconv.Itoa(req.Offset()))
	query.Set("limit", strconv.Itoa(req.PageSize))
	if c.config.ToDate != "" {
		query.Set("to_date", c.config.ToDate)
	}
	if req.Brand != "" {
		query.Set("order", "ASC")
		query.Set("sort_by", "collection_order")
		query.Add("collection_ids[]", req.Brand)
	}

	var resp listResponse
	if err := c.getJSON(ctx, endpointProducts, "/products", query, &resp); err != nil {
		return Page{Items: []Item{}}, err
	}

	items := resp.Products
	if items == nil {
		items = []Item{}
	}
	for i := range items {
		items[i].ResolvedSlug = ResolveSlug(items[i])
	}

	return Page{Items: items, Total: max(resp.Count, 0)}, nil
}

// FetchItems is ListItems that answers an empty page with a zero total
// when the upstream fails after retries. An empty page therefore means
// either no results or an unavailable upstream.
func (c *Client) FetchItems(ctx context.Context, req PageRequest) Page {
	page, err := c.ListItems(ctx, req)
	if err != nil {
		c.degrade("fetch_items", err)
		return Page{Items: []Item{}}
	}
	return page
}

// FetchItemByID returns one item. Failures are returned to the caller; an
// upstream 404 matches ErrNotFound.
func (c *Client) FetchItemByID(ctx context.Context, id string) (*Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, endpointProduct, "/products/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}

	item, err := decodeItem(raw)
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, fmt.Errorf("%w: upstream returned no item for %q", ErrNotFound, id)
	}

	item.ResolvedSlug = ResolveSlug(*item)
	return item, nil
}

// decodeItem accepts a bare item or one wrapped as {"product": ...}.
func decodeItem(raw json.RawMessage) (*Item, error) {
	var envelope itemResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Product != nil {
		return envelope.Product, nil
	}

	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &item, nil
}

// FetchItemBySlug finds the item whose resolved slug equals slugValue.
//
// A cached identifier is tried first and evicted when it no longer
// resolves to the slug. Otherwise the listing is scanned page by page,
// caching every item seen, until the slug is found, a page comes back
// empty, the reported total is exhausted or MaxScanPages is hit.
// A miss returns (nil, false).
func (c *Client) FetchItemBySlug(ctx context.Context, slugValue string) (*Item, bool) {
	target := cache.NormalizeSlug(slugValue)
	if target == "" {
		slugLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	key := c.cacheKey(target)

	if item, ok := c.lookupCached(ctx, key, target); ok {
		slugLookupsTotal.WithLabelValues("cache_hit").Inc()
		return item, true
	}

	item, pages := c.scanForSlug(ctx, target)
	slugScanPages.Observe(float64(pages))

	if item == nil {
		slugLookupsTotal.WithLabelValues("miss").Inc()
		c.logger.Debug().
			Str("slug", target).
			Int("pages", pages).
			Msg("Slug not found")
		return nil, false
	}

	slugLookupsTotal.WithLabelValues("scan_hit").Inc()
	return item, true
}

// lookupCached tries the cached identifier for target. A stale entry is
// evicted.
func (c *Client) lookupCached(ctx context.Context, key cache.Key, target string) (*Item, bool) {
	id, err := c.slugs.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("slug", target).Msg("Slug cache get error")
		}
		return nil, false
	}

	item, err := c.FetchItemByID(ctx, id)
	if err == nil && item.ResolvedSlug == target {
		return item, true
	}

	slugStaleTotal.Inc()
	logEvent := c.logger.Info().Str("slug", target).Str("item_id", id)
	if err != nil {
		logEvent = logEvent.Err(err)
	}
	logEvent.Msg("Evicting stale slug cache entry")

	if err := c.slugs.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("slug", target).Msg("Slug cache delete error")
	}
	return nil, false
}

// scanForSlug pages through the listing. It returns the match, if any, and
// the number of pages visited. Only the first item seen for a slug is
// cached, so colliding slugs keep resolving to the item the scan returned.
func (c *Client) scanForSlug(ctx context.Context, target string) (*Item, int) {
	pageSize := max(c.config.ScanPageSize, MinScanPageSize)

	seen := make(map[string]bool)
	visited := 0
	for pageNum := 1; pageNum <= c.config.MaxScanPages; pageNum++ {
		if ctx.Err() != nil {
			return nil, visited
		}

		page := c.FetchItems(ctx, PageRequest{Page: pageNum, PageSize: pageSize})
		visited++
		if len(page.Items) == 0 {
			return nil, visited
		}

		var match *Item
		for i := range page.Items {
			it := page.Items[i]
			if it.ID == "" || seen[it.ResolvedSlug] {
				continue
			}
			seen[it.ResolvedSlug] = true
			if err := c.slugs.Set(ctx, c.cacheKey(it.ResolvedSlug), it.ID); err != nil {
				c.logger.Warn().Err(err).Str("slug", it.ResolvedSlug).Msg("Slug cache set error")
			}
			if match == nil && it.ResolvedSlug == target {
				match = &it
			}
		}
		if match != nil {
			c.logger.Debug().
				Str("slug", target).
				Str("item_id", match.ID).
				Int("page", pageNum).
				Msg("Slug found by scan")
			return match, visited
		}

		if len(page.Items) < pageSize || pageNum >= pagination.TotalPages(page.Total, pageSize) {
			return nil, visited
		}
	}

	c.logger.Warn().
		Str("slug", target).
		Int("max_pages", c.config.MaxScanPages).
		Msg("Slug scan stopped at page limit")
	return nil, visited
}

func (c *Client) cacheKey(slugValue string) cache.Key {
	return cache.Key{Namespace: c.config.CacheNamespace, Slug: slugValue}
}

// degrade records a listing failure that is answered with an empty result.
func (c *Client) degrade(operation string, err error) {
	degradedTotal.WithLabelValues(operation).Inc()
	c.logger.Error().
		Err(err).
		Str("operation", operation).
		Msg("Upstream unavailable, returning empty result")
}

// getJSON performs a GET with retries and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, c.sleep, c.logger, endpoint, func(attempt int) error {
		b, err := c.do(ctx, endpoint, target)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		errorsTotal.WithLabelValues("decode").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// do executes a single GET attempt and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", target).
		Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")

		return nil, &UpstreamStatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SlugCache returns the slug cache (for testing and warm-up).
func (c *Client) SlugCache() cache.Store {
	return c.slugs
}

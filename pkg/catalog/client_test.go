package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rrautos/catalog-client/internal/testutil"
	"github.com/rrautos/catalog-client/pkg/cache"
)

// newTestClient creates a client against the mock upstream that records
// backoff waits instead of sleeping.
func newTestClient(t *testing.T, m *testutil.MockUpstream, modify ...func(*Config)) (*Client, *[]time.Duration) {
	t.Helper()

	cfg := DefaultConfig(m.URL())
	for _, fn := range modify {
		fn(&cfg)
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	waits := &[]time.Duration{}
	client.sleep = recordSleep(waits)
	t.Cleanup(func() { client.Close() })

	return client, waits
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("https://api.example.com/store/abc"),
			expectError: false,
		},
		{
			name:        "missing base url",
			config:      DefaultConfig(""),
			expectError: true,
			errorMsg:    "base url must be an absolute URL",
		},
		{
			name:        "relative base url",
			config:      DefaultConfig("/store/abc"),
			expectError: true,
			errorMsg:    "base url must be an absolute URL",
		},
		{
			name: "negative retries",
			config: func() Config {
				cfg := DefaultConfig("https://api.example.com")
				cfg.Retry.MaxRetries = -1
				return cfg
			}(),
			expectError: true,
			errorMsg:    "max_retries must be >= 0",
		},
		{
			name: "negative backoff",
			config: func() Config {
				cfg := DefaultConfig("https://api.example.com")
				cfg.Retry.InitialBackoff = -time.Second
				return cfg
			}(),
			expectError: true,
			errorMsg:    "initial_backoff must be >= 0",
		},
		{
			name: "invalid locale",
			config: func() Config {
				cfg := DefaultConfig("https://api.example.com")
				cfg.Locale = "not a locale!"
				return cfg
			}(),
			expectError: true,
			errorMsg:    "invalid locale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Expected client, got nil")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(Config{BaseURL: "https://api.example.com/store/abc/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.baseURL != "https://api.example.com/store/abc" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", client.baseURL)
	}
	if client.config.ScanPageSize != MinScanPageSize {
		t.Errorf("ScanPageSize = %d, want %d", client.config.ScanPageSize, MinScanPageSize)
	}
	if client.config.MaxScanPages <= 0 {
		t.Errorf("MaxScanPages = %d, want > 0", client.config.MaxScanPages)
	}
	if _, ok := client.SlugCache().(*cache.MemoryStore); !ok {
		t.Errorf("SlugCache() = %T, want *cache.MemoryStore", client.SlugCache())
	}
	if client.config.Headers["Accept"] != "application/json" {
		t.Errorf("default headers not applied: %v", client.config.Headers)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://api.example.com")

	if cfg.Locale != "es" {
		t.Errorf("Locale = %q, want es", cfg.Locale)
	}
	if cfg.Retry != DefaultRetryConfig() {
		t.Errorf("Retry = %+v, want defaults", cfg.Retry)
	}
	if cfg.ScanPageSize < MinScanPageSize {
		t.Errorf("ScanPageSize = %d, below minimum", cfg.ScanPageSize)
	}
	if cfg.Headers["Accept-Language"] == "" {
		t.Error("Accept-Language header missing")
	}
}

func TestListBrands_SortedByLocale(t *testing.T) {
	m := testutil.NewMockUpstream(nil, []testutil.Collection{
		{ID: "c3", Title: "Volkswagen"},
		{ID: "c1", Title: "Ñissan"},
		{ID: "c2", Title: "Audi"},
		{ID: "c4", Title: "Nissan"},
		{ID: "c5", Title: "Ómnibus"},
	})
	defer m.Close()

	client, _ := newTestClient(t, m)

	brands, err := client.ListBrands(context.Background())
	if err != nil {
		t.Fatalf("ListBrands() error = %v", err)
	}

	want := []string{"Audi", "Nissan", "Ñissan", "Ómnibus", "Volkswagen"}
	if len(brands) != len(want) {
		t.Fatalf("got %d brands, want %d", len(brands), len(want))
	}
	for i, title := range want {
		if brands[i].Title != title {
			t.Errorf("brands[%d] = %q, want %q", i, brands[i].Title, title)
		}
	}
}

func TestFetchBrands_DegradesToEmpty(t *testing.T) {
	m := testutil.NewMockUpstream(nil, []testutil.Collection{{ID: "c1", Title: "Kia"}})
	defer m.Close()
	m.FailNext(testutil.RouteCollections, 500, 500, 500)

	client, waits := newTestClient(t, m)

	brands := client.FetchBrands(context.Background())
	if brands == nil || len(brands) != 0 {
		t.Errorf("FetchBrands() = %v, want empty non-nil slice", brands)
	}
	if got := m.RequestCount(testutil.RouteCollections); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if len(*waits) != 2 {
		t.Errorf("waits = %v, want 2", *waits)
	}
}

func TestListItems_QueryAndHeaders(t *testing.T) {
	products := testutil.Vehicles(3)
	products[0].Collections = []string{"brand_kia"}
	m := testutil.NewMockUpstream(products, nil)
	defer m.Close()

	client, _ := newTestClient(t, m, func(cfg *Config) {
		cfg.ToDate = "2025-01-01T00:00:00Z"
		cfg.Headers["Origin"] = "https://rrautos.example"
	})

	page, err := client.ListItems(context.Background(), PageRequest{Page: 2, PageSize: 9, Brand: "brand_kia"})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}

	query := m.LastQuery
	checks := map[string]string{
		"offset":           "9",
		"limit":            "9",
		"to_date":          "2025-01-01T00:00:00Z",
		"order":            "ASC",
		"sort_by":          "collection_order",
		"collection_ids[]": "brand_kia",
	}
	for k, want := range checks {
		if got := query[k]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", k, got, want)
		}
	}

	h := m.LastRequestHeader
	if h.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", h.Get("Accept"))
	}
	if h.Get("Accept-Language") != "en-US,en;q=0.9,es;q=0.8" {
		t.Errorf("Accept-Language = %q", h.Get("Accept-Language"))
	}
	if h.Get("Origin") != "https://rrautos.example" {
		t.Errorf("Origin = %q", h.Get("Origin"))
	}
}

func TestListItems_NoBrandOmitsFilter(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(12), nil)
	defer m.Close()

	client, _ := newTestClient(t, m)

	page, err := client.ListItems(context.Background(), PageRequest{})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(page.Items) != DefaultPageSize {
		t.Errorf("len(Items) = %d, want %d", len(page.Items), DefaultPageSize)
	}
	if page.Total != 12 {
		t.Errorf("Total = %d, want 12", page.Total)
	}
	for _, k := range []string{"order", "sort_by", "collection_ids[]", "to_date"} {
		if _, ok := m.LastQuery[k]; ok {
			t.Errorf("query carries %s without a brand", k)
		}
	}
	if got := m.LastQuery["offset"]; len(got) != 1 || got[0] != "0" {
		t.Errorf("offset = %v, want 0", got)
	}
}

func TestListItems_ResolvesSlugs(t *testing.T) {
	m := testutil.NewMockUpstream([]testutil.Product{
		{ID: "p1", Title: "Kia Rio 2019", PageSettings: map[string]string{"seoSlug": "kia-rio-especial"}},
		{ID: "p2", Title: "Mazda 3", SEOSettings: map[string]string{"slug": "mazda-3-sedan"}},
		{ID: "p3", Title: "Jeep Compass", Slug: "jeep-compass-legacy"},
		{ID: "p4", Title: "Chevrolet Aveo"},
	}, nil)
	defer m.Close()

	client, _ := newTestClient(t, m)

	page, err := client.ListItems(context.Background(), PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}

	want := []string{"kia-rio-especial", "mazda-3-sedan", "jeep-compass-legacy", "chevrolet-aveo"}
	for i, slug := range want {
		if page.Items[i].ResolvedSlug != slug {
			t.Errorf("item %d slug = %q, want %q", i, page.Items[i].ResolvedSlug, slug)
		}
	}
}

func TestFetchItems_RetryThenSuccess(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(5), nil)
	defer m.Close()
	m.FailNext(testutil.RouteProducts, 503, 502)

	client, waits := newTestClient(t, m)

	page := client.FetchItems(context.Background(), PageRequest{Page: 1, PageSize: 9})
	if len(page.Items) != 5 || page.Total != 5 {
		t.Errorf("page = %d items / total %d, want 5/5", len(page.Items), page.Total)
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}

	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(*waits) != 2 || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Errorf("waits = %v, want %v", *waits, want)
	}
}

func TestFetchItems_DegradesToEmpty(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(5), nil)
	defer m.Close()
	m.FailNext(testutil.RouteProducts, 500, 500, 500)

	client, _ := newTestClient(t, m)

	page := client.FetchItems(context.Background(), PageRequest{Page: 1})
	if page.Items == nil || len(page.Items) != 0 || page.Total != 0 {
		t.Errorf("FetchItems() = %+v, want empty page with zero total", page)
	}

	// The strict variant surfaces the failure
	m.FailNext(testutil.RouteProducts, 500, 500, 500)
	if _, err := client.ListItems(context.Background(), PageRequest{Page: 1}); !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("ListItems() error = %v, want ErrRetryExhausted", err)
	}
}

func TestListItems_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products": [`))
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.ListItems(context.Background(), PageRequest{Page: 1})
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("ListItems() error = %v, want decode error", err)
	}
}

func TestListItems_MissingFieldsDecodeAsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	page, err := client.ListItems(context.Background(), PageRequest{Page: 1})
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 || page.Total != 0 {
		t.Errorf("page = %+v, want empty", page)
	}
}

func TestFetchItemByID(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(2), nil)
	defer m.Close()

	client, _ := newTestClient(t, m)
	ctx := context.Background()

	item, err := client.FetchItemByID(ctx, "prod_2")
	if err != nil {
		t.Fatalf("FetchItemByID() error = %v", err)
	}
	if item.Title != "Vehicle 2" || item.ResolvedSlug != "vehicle-2" {
		t.Errorf("item = %+v", item)
	}

	m.WrapItems(true)
	item, err = client.FetchItemByID(ctx, "prod_1")
	if err != nil {
		t.Fatalf("FetchItemByID() wrapped error = %v", err)
	}
	if item.ID != "prod_1" {
		t.Errorf("wrapped item id = %q", item.ID)
	}

	if _, err := client.FetchItemByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item error = %v, want ErrNotFound", err)
	}

	if _, err := client.FetchItemByID(ctx, " "); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty id error = %v, want ErrNotFound", err)
	}
}

func TestFetchItemBySlug_ScanPopulatesCache(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(70), nil)
	defer m.Close()

	client, _ := newTestClient(t, m, func(cfg *Config) { cfg.ScanPageSize = 30 })
	ctx := context.Background()

	item, ok := client.FetchItemBySlug(ctx, "vehicle-65")
	if !ok {
		t.Fatal("FetchItemBySlug() miss, want hit")
	}
	if item.ID != "prod_65" {
		t.Errorf("item id = %q, want prod_65", item.ID)
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 3 {
		t.Errorf("listing requests = %d, want 3", got)
	}

	store := client.SlugCache().(*cache.MemoryStore)
	if store.Len() != 70 {
		t.Errorf("cache entries = %d, want 70", store.Len())
	}

	// Second lookup goes through the cache
	m.Reset()
	item, ok = client.FetchItemBySlug(ctx, "Vehicle-3")
	if !ok || item.ID != "prod_3" {
		t.Fatalf("cached lookup = %v, %v", item, ok)
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 0 {
		t.Errorf("listing requests = %d, want 0", got)
	}
	if got := m.RequestCount(testutil.RouteProduct); got != 1 {
		t.Errorf("item requests = %d, want 1", got)
	}
}

func TestFetchItemBySlug_Miss(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(40), nil)
	defer m.Close()

	client, _ := newTestClient(t, m)

	if item, ok := client.FetchItemBySlug(context.Background(), "does-not-exist"); ok || item != nil {
		t.Errorf("FetchItemBySlug() = %v, %v, want miss", item, ok)
	}
	// 40 items at the default scan size of 50 is a single page
	if got := m.RequestCount(testutil.RouteProducts); got != 1 {
		t.Errorf("listing requests = %d, want 1", got)
	}

	if _, ok := client.FetchItemBySlug(context.Background(), "  "); ok {
		t.Error("empty slug should miss")
	}
}

func TestFetchItemBySlug_StaleCacheEntry(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(5), nil)
	defer m.Close()

	client, _ := newTestClient(t, m)
	ctx := context.Background()

	store := client.SlugCache()
	key := client.cacheKey("vehicle-4")

	// Points at an item whose slug no longer matches
	if err := store.Set(ctx, key, "prod_1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	item, ok := client.FetchItemBySlug(ctx, "vehicle-4")
	if !ok || item.ID != "prod_4" {
		t.Fatalf("FetchItemBySlug() = %v, %v, want prod_4", item, ok)
	}

	id, err := store.Get(ctx, key)
	if err != nil || id != "prod_4" {
		t.Errorf("cache entry = %q, %v, want prod_4", id, err)
	}
}

func TestFetchItemBySlug_CachedIDGone(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(3), nil)
	defer m.Close()

	client, waits := newTestClient(t, m)
	ctx := context.Background()

	key := client.cacheKey("renamed-vehicle")
	if err := client.SlugCache().Set(ctx, key, "prod_99"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := client.FetchItemBySlug(ctx, "renamed-vehicle"); ok {
		t.Error("FetchItemBySlug() hit, want miss")
	}
	if _, err := client.SlugCache().Get(ctx, key); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("stale entry not evicted: %v", err)
	}
	// The 404 is retried before the entry is dropped
	if got := m.RequestCount(testutil.RouteProduct); got != 3 {
		t.Errorf("item requests = %d, want 3", got)
	}
	if len(*waits) != 2 {
		t.Errorf("waits = %v, want 2", *waits)
	}
}

func TestFetchItemBySlug_InflatedTotal(t *testing.T) {
	tests := []struct {
		name         string
		items        int
		wantRequests int
	}{
		// Page 1 (30), page 2 (5) is short
		{name: "stops on short page", items: 35, wantRequests: 2},
		// Page 1 (30), page 2 (30), page 3 empty
		{name: "stops on empty page", items: 60, wantRequests: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMockUpstream(testutil.Vehicles(tt.items), nil)
			defer m.Close()
			m.SetCountDelta(1000)

			client, _ := newTestClient(t, m, func(cfg *Config) { cfg.ScanPageSize = 30 })

			if _, ok := client.FetchItemBySlug(context.Background(), "nope"); ok {
				t.Error("FetchItemBySlug() hit, want miss")
			}
			if got := m.RequestCount(testutil.RouteProducts); got != tt.wantRequests {
				t.Errorf("listing requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestFetchItemBySlug_CollidingSlugsKeepFirstItem(t *testing.T) {
	m := testutil.NewMockUpstream([]testutil.Product{
		{ID: "a", Title: "Ford Fiesta"},
		{ID: "b", Title: "Ford Fiesta"},
	}, nil)
	defer m.Close()

	client, _ := newTestClient(t, m)
	ctx := context.Background()

	item, ok := client.FetchItemBySlug(ctx, "ford-fiesta")
	if !ok || item.ID != "a" {
		t.Fatalf("scan lookup = %v, %v, want a", item, ok)
	}

	id, err := client.SlugCache().Get(ctx, client.cacheKey("ford-fiesta"))
	if err != nil || id != "a" {
		t.Errorf("cache entry = %q, %v, want a", id, err)
	}

	m.Reset()
	item, ok = client.FetchItemBySlug(ctx, "ford-fiesta")
	if !ok || item.ID != "a" {
		t.Errorf("cached lookup = %v, %v, want a", item, ok)
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 0 {
		t.Errorf("listing requests = %d, want 0", got)
	}
}

func TestFetchItemBySlug_MaxScanPages(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(200), nil)
	defer m.Close()

	client, _ := newTestClient(t, m, func(cfg *Config) {
		cfg.ScanPageSize = 30
		cfg.MaxScanPages = 2
	})

	if _, ok := client.FetchItemBySlug(context.Background(), "vehicle-150"); ok {
		t.Error("FetchItemBySlug() hit beyond the page limit")
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 2 {
		t.Errorf("listing requests = %d, want 2", got)
	}
}

func TestFetchItemBySlug_UpstreamDown(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(3), nil)
	defer m.Close()
	m.FailNext(testutil.RouteProducts, 500, 500, 500)

	client, _ := newTestClient(t, m)

	if _, ok := client.FetchItemBySlug(context.Background(), "vehicle-1"); ok {
		t.Error("FetchItemBySlug() hit with upstream down")
	}
}

func TestFetchItemBySlug_CancelledContext(t *testing.T) {
	m := testutil.NewMockUpstream(testutil.Vehicles(3), nil)
	defer m.Close()

	client, _ := newTestClient(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := client.FetchItemBySlug(ctx, "vehicle-1"); ok {
		t.Error("FetchItemBySlug() hit with cancelled context")
	}
	if got := m.RequestCount(testutil.RouteProducts); got != 0 {
		t.Errorf("listing requests = %d, want 0", got)
	}
}

func TestPageRequest_Offset(t *testing.T) {
	tests := []struct {
		req  PageRequest
		want int
	}{
		{PageRequest{Page: 1, PageSize: 9}, 0},
		{PageRequest{Page: 3, PageSize: 9}, 18},
		{PageRequest{Page: 0, PageSize: 9}, 0},
		{PageRequest{Page: 2}, DefaultPageSize},
		{PageRequest{Page: -4, PageSize: -1}, 0},
	}

	for _, tt := range tests {
		if got := tt.req.Offset(); got != tt.want {
			t.Errorf("%+v.Offset() = %d, want %d", tt.req, got, tt.want)
		}
	}
}

func TestItem_LastModified(t *testing.T) {
	tests := []struct {
		name   string
		item   Item
		want   string
		wantOK bool
	}{
		{"updated wins", Item{CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-06-01T10:00:00Z"}, "2024-06-01T10:00:00Z", true},
		{"created fallback", Item{CreatedAt: "2024-01-01T00:00:00Z"}, "2024-01-01T00:00:00Z", true},
		{"bad updated falls back", Item{CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "yesterday"}, "2024-01-01T00:00:00Z", true},
		{"none", Item{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := tt.item.LastModified()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && ts.Format(time.RFC3339) != tt.want {
				t.Errorf("LastModified() = %v, want %s", ts, tt.want)
			}
		})
	}
}

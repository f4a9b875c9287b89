// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Product is the upstream representation of a catalog item.
type Product struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	Slug         string            `json:"slug,omitempty"`
	SEOSettings  map[string]string `json:"seo_settings,omitempty"`
	PageSettings map[string]string `json:"page_settings,omitempty"`
	UpdatedAt    string            `json:"updated_at,omitempty"`
	// Collections the product belongs to, used by the brand filter.
	Collections []string `json:"-"`
}

// Collection is the upstream representation of a brand.
type Collection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MockUpstream is a configurable fake of the commerce API.
//
// Routes: GET /collections, GET /products?offset&limit[&collection_ids[]],
// GET /products/{id}.
type MockUpstream struct {
	server *httptest.Server

	mu          sync.RWMutex
	products    []Product
	collections []Collection
	failures    map[string][]int // route -> queued status codes
	countDelta  int
	wrapItem    bool

	// Tracking
	requests          map[string]int
	LastRequestHeader http.Header
	LastQuery         map[string][]string
}

// Routes accepted by FailNext and RequestCount.
const (
	RouteCollections = "/collections"
	RouteProducts    = "/products"
	RouteProduct     = "/products/{id}"
)

// NewMockUpstream starts a fake upstream serving the given data.
func NewMockUpstream(products []Product, collections []Collection) *MockUpstream {
	m := &MockUpstream{
		products:    products,
		collections: collections,
		failures:    make(map[string][]int),
		requests:    make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// FailNext makes the next len(statuses) requests to route answer with
// those status codes, in order.
func (m *MockUpstream) FailNext(route string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[route] = append(m.failures[route], statuses...)
}

// SetProducts replaces the served products.
func (m *MockUpstream) SetProducts(products []Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
}

// SetCountDelta skews the reported count by delta, to simulate an upstream
// total that disagrees with the data.
func (m *MockUpstream) SetCountDelta(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countDelta = delta
}

// WrapItems makes /products/{id} answer {"product": {...}}.
func (m *MockUpstream) WrapItems(wrap bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wrapItem = wrap
}

// RequestCount returns the number of requests made to route.
func (m *MockUpstream) RequestCount(route string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[route]
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	route := routeOf(r.URL.Path)

	m.mu.Lock()
	m.requests[route]++
	m.LastRequestHeader = r.Header.Clone()
	m.LastQuery = r.URL.Query()
	var status int
	if queued := m.failures[route]; len(queued) > 0 {
		status = queued[0]
		m.failures[route] = queued[1:]
	}
	m.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(`{"error": "injected failure"}`))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch route {
	case RouteCollections:
		writeJSON(w, map[string]any{"collections": m.collections})
	case RouteProducts:
		m.serveProducts(w, r)
	case RouteProduct:
		m.serveProduct(w, strings.TrimPrefix(r.URL.Path, "/products/"))
	default:
		http.NotFound(w, r)
	}
}

func (m *MockUpstream) serveProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	matching := m.products
	if brand := q.Get("collection_ids[]"); brand != "" {
		matching = nil
		for _, p := range m.products {
			for _, c := range p.Collections {
				if c == brand {
					matching = append(matching, p)
					break
				}
			}
		}
	}

	page := []Product{}
	if offset >= 0 && offset < len(matching) {
		end := min(offset+limit, len(matching))
		page = matching[offset:end]
	}

	writeJSON(w, map[string]any{
		"products": page,
		"count":    len(matching) + m.countDelta,
	})
}

func (m *MockUpstream) serveProduct(w http.ResponseWriter, id string) {
	for _, p := range m.products {
		if p.ID == id {
			if m.wrapItem {
				writeJSON(w, map[string]any{"product": p})
			} else {
				writeJSON(w, p)
			}
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message": "product not found"}`))
}

func routeOf(path string) string {
	switch {
	case path == RouteCollections:
		return RouteCollections
	case path == RouteProducts:
		return RouteProducts
	case strings.HasPrefix(path, "/products/"):
		return RouteProduct
	default:
		return path
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// Vehicles returns n products titled "Vehicle <i>" with ids "prod_<i>".
func Vehicles(n int) []Product {
	products := make([]Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, Product{
			ID:    "prod_" + strconv.Itoa(i),
			Title: "Vehicle " + strconv.Itoa(i),
		})
	}
	return products
}

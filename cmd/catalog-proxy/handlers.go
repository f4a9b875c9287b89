package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rrautos/catalog-client/pkg/catalog"
	"github.com/rrautos/catalog-client/pkg/logging"
	"github.com/rrautos/catalog-client/pkg/metrics"
	"github.com/rrautos/catalog-client/pkg/pagination"
	"github.com/rrautos/catalog-client/pkg/sitemap"
)

// upstreamTimeout bounds one proxied catalog call, retries included.
const upstreamTimeout = 30 * time.Second

type server struct {
	catalog  *catalog.Client
	sitemap  *sitemap.Builder
	pageSize int
}

// itemsResponse is the body of GET /api/items.
type itemsResponse struct {
	Items      []catalog.Item     `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Pagination []pagination.Token `json:"pagination"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logging.NewLogger(logging.ComponentProxy)))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.readyHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/brands", s.brandsHandler)
		r.Get("/items", s.itemsHandler)
		r.Get("/items/{slug}", s.itemHandler)
	})

	r.Get("/sitemap.xml", s.sitemapHandler)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler reports whether a shared slug cache is reachable.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface {
		Ping(ctx context.Context) error
	}

	if p, ok := s.catalog.SlugCache().(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Slug cache unreachable")
			http.Error(w, "slug cache unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) brandsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, s.catalog.FetchBrands(ctx))
}

func (s *server) itemsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	result := s.catalog.FetchItems(ctx, catalog.PageRequest{
		Page:     page,
		PageSize: s.pageSize,
		Brand:    strings.TrimSpace(r.URL.Query().Get("marca")),
	})

	totalPages := pagination.TotalPages(result.Total, s.pageSize)
	seq := pagination.BuildSequence(totalPages, page)
	if seq == nil {
		seq = []pagination.Token{}
	}

	writeJSON(w, http.StatusOK, itemsResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       page,
		TotalPages: totalPages,
		Pagination: seq,
	})
}

func (s *server) itemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	item, ok := s.catalog.FetchItemBySlug(ctx, chi.URLParam(r, "slug"))
	if !ok {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "item not found"})
		return
	}

	writeJSON(w, http.StatusOK, item.Detail())
}

func (s *server) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusBadRequest, messageResponse{
			Message: "Use /sitemap.xml with Accept: application/xml.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*upstreamTimeout)
	defer cancel()

	entries, err := s.sitemap.Build(ctx)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Sitemap build failed")
		http.Error(w, "sitemap unavailable", http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := sitemap.Render(&buf, entries); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Sitemap render failed")
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=UTF-8")
	w.Header().Set("Cache-Control", "public, max-age=3600, stale-while-revalidate=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.NewLogger(logging.ComponentProxy)
		logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// requestLogger logs one line per request and attaches a request-scoped
// logger to the context.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := base.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

// Package sitemap builds the public sitemap from the catalog: static pages,
// one listing URL per brand and one detail URL per item.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rrautos/catalog-client/pkg/catalog"
	"github.com/rrautos/catalog-client/pkg/logging"
	"github.com/rrautos/catalog-client/pkg/pagination"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DefaultPageSize is the listing page size used to enumerate items.
const DefaultPageSize = 100

// ChangeFreq is the sitemap changefreq value.
type ChangeFreq string

const (
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

// Entry is one <url> of the sitemap.
type Entry struct {
	Loc        string
	LastMod    string // YYYY-MM-DD, optional
	ChangeFreq ChangeFreq
	Priority   float64
}

// Source is the part of the catalog client the builder reads.
type Source interface {
	FetchBrands(ctx context.Context) []catalog.Brand
	ListItems(ctx context.Context, req catalog.PageRequest) (catalog.Page, error)
}

// Config holds builder configuration.
type Config struct {
	// SiteURL is the public site; only its origin is used.
	SiteURL string
	// ItemsPath is the item listing path, e.g. "/vehiculos".
	ItemsPath string
	// PageSize used when enumerating items (default 100).
	PageSize int
	// Batch configures the parallel page fetch.
	Batch pagination.Config
}

// Builder assembles sitemap entries.
type Builder struct {
	source    Source
	origin    string
	itemsPath string
	pageSize  int
	batch     pagination.Config
	logger    zerolog.Logger
}

// NewBuilder creates a builder reading from source.
func NewBuilder(source Source, cfg Config) (*Builder, error) {
	site, err := url.Parse(strings.TrimSpace(cfg.SiteURL))
	if err != nil || site.Scheme == "" || site.Host == "" {
		return nil, fmt.Errorf("site url must be an absolute URL (got %q)", cfg.SiteURL)
	}

	itemsPath := "/" + strings.Trim(cfg.ItemsPath, "/")
	if itemsPath == "/" {
		return nil, fmt.Errorf("items path must not be empty")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Builder{
		source:    source,
		origin:    site.Scheme + "://" + site.Host,
		itemsPath: itemsPath,
		pageSize:  pageSize,
		batch:     cfg.Batch,
		logger:    logging.NewLogger(logging.ComponentSitemap),
	}, nil
}

// Build returns static entries, then brand entries, then item entries.
// Brands degrade to none; an item listing failure is returned as an error.
func (b *Builder) Build(ctx context.Context) ([]Entry, error) {
	start := time.Now()

	var brands, items []Entry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		brands = b.brandEntries(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = b.itemEntries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := b.staticEntries()
	entries = append(entries, brands...)
	entries = append(entries, items...)

	b.logger.Info().
		Int("brands", len(brands)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Sitemap built")

	return entries, nil
}

func (b *Builder) staticEntries() []Entry {
	return []Entry{
		{Loc: b.origin + "/", ChangeFreq: Weekly, Priority: 1.0},
		{Loc: b.origin + b.itemsPath, ChangeFreq: Daily, Priority: 0.9},
		{Loc: b.origin + "/servicios", ChangeFreq: Monthly, Priority: 0.6},
	}
}

func (b *Builder) brandEntries(ctx context.Context) []Entry {
	brands := b.source.FetchBrands(ctx)

	entries := make([]Entry, 0, len(brands))
	for _, brand := range brands {
		entries = append(entries, Entry{
			Loc:        b.origin + b.itemsPath + "?marca=" + url.QueryEscape(brand.ID),
			ChangeFreq: Weekly,
			Priority:   0.6,
		})
	}
	return entries
}

func (b *Builder) itemEntries(ctx context.Context) ([]Entry, error) {
	fetcher := pagination.NewBatchFetcher[catalog.Item](
		pagination.PageFetcherFunc[catalog.Item](func(ctx context.Context, pageNum int) ([]catalog.Item, int, error) {
			page, err := b.source.ListItems(ctx, catalog.PageRequest{Page: pageNum, PageSize: b.pageSize})
			if err != nil {
				return nil, 0, err
			}
			return page.Items, pagination.TotalPages(page.Total, b.pageSize), nil
		}),
		b.batch,
	)

	items, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		entry := Entry{
			Loc:        b.origin + b.itemsPath + "/" + url.PathEscape(it.ResolvedSlug),
			ChangeFreq: Weekly,
			Priority:   0.7,
		}
		if ts, ok := it.LastModified(); ok {
			entry.LastMod = ts.UTC().Format(time.DateOnly)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority"`
}

// Render writes entries as a sitemap 0.9 document.
func Render(w io.Writer, entries []Entry) error {
	set := urlSet{Xmlns: Namespace, URLs: make([]xmlURL, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, xmlURL{
			Loc:        e.Loc,
			LastMod:    e.LastMod,
			ChangeFreq: string(e.ChangeFreq),
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

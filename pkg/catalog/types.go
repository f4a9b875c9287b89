package catalog

import (
	"time"

	"github.com/rrautos/catalog-client/pkg/slug"
)

// DefaultPageSize is the listing page size used by the catalog pages.
const DefaultPageSize = 9

// Brand is an upstream collection used to filter listings.
type Brand struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SEOSettings holds the item-level SEO configuration.
type SEOSettings struct {
	Slug string `json:"slug,omitempty"`
}

// PageSettings holds the editor's page-level overrides.
type PageSettings struct {
	SEOSlug string `json:"seoSlug,omitempty"`
}

// Item is a vehicle as returned by the upstream. The client only reads it;
// ResolvedSlug is filled in on every item the client returns.
type Item struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	Thumbnail    string        `json:"thumbnail,omitempty"`
	RibbonText   string        `json:"ribbon_text,omitempty"`
	Slug         string        `json:"slug,omitempty"`
	SEOSettings  *SEOSettings  `json:"seo_settings,omitempty"`
	PageSettings *PageSettings `json:"page_settings,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`

	ResolvedSlug string `json:"resolved_slug,omitempty"`
}

// SlugSource returns the item's slug candidates.
func (it Item) SlugSource() slug.Source {
	src := slug.Source{
		Slug:  it.Slug,
		Title: it.Title,
		ID:    it.ID,
	}
	if it.PageSettings != nil {
		src.PageSEOSlug = it.PageSettings.SEOSlug
	}
	if it.SEOSettings != nil {
		src.SEOSlug = it.SEOSettings.Slug
	}
	return src
}

// LastModified returns UpdatedAt, else CreatedAt, parsed as RFC 3339.
func (it Item) LastModified() (time.Time, bool) {
	for _, v := range []string{it.UpdatedAt, it.CreatedAt} {
		if v == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ResolveSlug returns the URL slug of an item. See slug.Resolve.
func ResolveSlug(it Item) string {
	return slug.Resolve(it.SlugSource())
}

// PageRequest selects one page of the listing.
type PageRequest struct {
	// Page is 1-based.
	Page     int
	PageSize int
	// Brand filters by collection identifier when set.
	Brand string
}

// normalized returns a copy with Page >= 1 and PageSize >= 1.
func (r PageRequest) normalized() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	return r
}

// Offset returns the index of the first item on the page.
func (r PageRequest) Offset() int {
	n := r.normalized()
	return (n.Page - 1) * n.PageSize
}

// Page is one listing page and the upstream total item count.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// listResponse is the envelope of the listing endpoints. Missing fields
// decode as empty.
type listResponse struct {
	Collections []Brand `json:"collections"`
	Products    []Item  `json:"products"`
	Count       int     `json:"count"`
}

// itemResponse is the optional envelope of the item endpoint.
type itemResponse struct {
	Product *Item `json:"product"`
}

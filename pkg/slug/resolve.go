package slug

// DefaultTitle stands in for a missing title in the last-resort slug.
const DefaultTitle = "vehiculo"

// Source holds the slug candidates of a catalog item. Empty strings mean
// the field is absent upstream.
type Source struct {
	// PageSEOSlug is the page-level override set by an editor.
	PageSEOSlug string

	// SEOSlug is the item-level SEO slug.
	SEOSlug string

	// Slug is the item's own slug field.
	Slug string

	Title string

	// ID is the upstream identifier, unique and never empty for real items.
	ID string
}

// Resolve returns the first candidate that slugifies to a non-empty value,
// in priority order: page override, SEO slug, slug, title, identifier.
//
// When every candidate slugifies to nothing it falls back to
// Slugify(title-or-DefaultTitle + "-" + id) and finally to the raw
// identifier, so the result is never empty for an item with an identifier.
func Resolve(src Source) string {
	candidates := [...]string{
		src.PageSEOSlug,
		src.SEOSlug,
		src.Slug,
		src.Title,
		src.ID,
	}

	for _, candidate := range candidates {
		if s := Slugify(candidate); s != "" {
			return s
		}
	}

	title := src.Title
	if title == "" {
		title = DefaultTitle
	}
	if s := Slugify(title + "-" + src.ID); s != "" {
		return s
	}

	return src.ID
}

package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NoLink is returned when no usable URL exists.
const NoLink = "#"

var bareURL = regexp.MustCompile(`https?://[^\s)<>"']+`)

// SanitizeURL returns raw normalized when it is an absolute http(s) URL,
// NoLink otherwise.
func SanitizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return NoLink
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NoLink
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// ExtractFirstLink returns the first usable link of an item description.
// Anchors win over URLs written in the text; NoLink when there is none.
func ExtractFirstLink(description string) string {
	if strings.TrimSpace(description) == "" {
		return NoLink
	}

	text := description
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
		link := NoLink
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			link = SanitizeURL(href)
			return link == NoLink
		})
		if link != NoLink {
			return link
		}
		text = doc.Text()
	}

	if match := bareURL.FindString(text); match != "" {
		return SanitizeURL(match)
	}
	return NoLink
}

// CallToActionURL is the item's outbound link, or fallback when the
// description carries none.
func (it Item) CallToActionURL(fallback string) string {
	if link := ExtractFirstLink(it.Description); link != NoLink {
		return link
	}
	return fallback
}

// ItemDetail is an item with its call-to-action link resolved, as served
// to the item page.
type ItemDetail struct {
	Item
	CTAURL string `json:"cta_url,omitempty"`
}

// Detail returns the item with its call-to-action link. CTAURL is empty
// when the description carries no link.
func (it Item) Detail() ItemDetail {
	return ItemDetail{Item: it, CTAURL: it.CallToActionURL("")}
}

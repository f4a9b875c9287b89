package pagination

import (
	"slices"
	"strconv"
)

// Token is one entry of a pagination control: a page number in
// [1, totalPages] or the Ellipsis marker.
type Token int

// Ellipsis marks an elided run of pages. It is never a valid page number.
const Ellipsis Token = -1

// EllipsisText is how an Ellipsis renders.
const EllipsisText = "…"

// FullRangeLimit is the largest page count shown without elision.
const FullRangeLimit = 9

const (
	// currentWindow pages are shown on each side of the current page.
	currentWindow = 2
	// edgePages are shown after page 1 and before the last page.
	edgePages = 2
)

// IsEllipsis reports whether t is the Ellipsis marker.
func (t Token) IsEllipsis() bool {
	return t == Ellipsis
}

// Page returns the page number and true, or 0 and false for an Ellipsis.
func (t Token) Page() (int, bool) {
	if t.IsEllipsis() {
		return 0, false
	}
	return int(t), true
}

// String renders the page number or EllipsisText.
func (t Token) String() string {
	if t.IsEllipsis() {
		return EllipsisText
	}
	return strconv.Itoa(int(t))
}

// MarshalJSON encodes a page as a number and the Ellipsis as "…".
func (t Token) MarshalJSON() ([]byte, error) {
	if t.IsEllipsis() {
		return []byte(strconv.Quote(EllipsisText)), nil
	}
	return []byte(strconv.Itoa(int(t))), nil
}

// BuildSequence compresses totalPages into a bounded control around
// currentPage.
//
// Up to FullRangeLimit pages are all listed. Beyond that the sequence holds
// page 1, pages 2-3, the two pages before the last, the last page and the
// window currentPage±2, ascending and without duplicates, with a single
// Ellipsis wherever consecutive pages are not adjacent. currentPage is
// clamped into [1, totalPages]. Returns nil when totalPages <= 0.
func BuildSequence(totalPages, currentPage int) []Token {
	if totalPages <= 0 {
		return nil
	}

	if totalPages <= FullRangeLimit {
		seq := make([]Token, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			seq = append(seq, Token(p))
		}
		return seq
	}

	current := min(max(currentPage, 1), totalPages)

	pages := make([]int, 0, 4+2*edgePages+2*currentWindow)
	pages = append(pages, 1, totalPages)
	for i := 1; i <= edgePages; i++ {
		pages = append(pages, 1+i, totalPages-i)
	}
	// Counting offsets keeps the loop finite when hi is math.MaxInt.
	lo := max(current-currentWindow, 1)
	hi := current + min(currentWindow, totalPages-current)
	for off := 0; off <= hi-lo; off++ {
		pages = append(pages, lo+off)
	}

	slices.Sort(pages)
	pages = slices.Compact(pages)

	seq := make([]Token, 0, 2*len(pages))
	for i, p := range pages {
		if i > 0 && p-pages[i-1] > 1 {
			seq = append(seq, Ellipsis)
		}
		seq = append(seq, Token(p))
	}

	return seq
}

// TotalPages returns ceil(total/pageSize), or 0 when either is not positive.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

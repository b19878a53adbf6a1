package board

import "feedbackboard/internal/models"

// DefaultMaxShown is how many page numbers the navigation bar shows
const DefaultMaxShown = 5

// Pagination is the derived paging state for the current snapshot
type Pagination struct {
	PageSize    int
	CurrentPage int
	TotalPages  int
}

// Recompute derives the page count for recordCount records and clamps
// requestedPage into [1, TotalPages]. Non-positive page sizes are treated as 1.
func Recompute(recordCount, pageSize, requestedPage int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	if recordCount < 0 {
		recordCount = 0
	}

	totalPages := (recordCount + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return Pagination{
		PageSize:    pageSize,
		CurrentPage: clamp(requestedPage, 1, totalPages),
		TotalPages:  totalPages,
	}
}

// HasPage reports whether page is within range
func (p Pagination) HasPage(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

// WindowFor returns the records shown on currentPage, truncated to what is available
func WindowFor(records []models.FeedbackRecord, pageSize, currentPage int) []models.FeedbackRecord {
	if len(records) == 0 || pageSize < 1 || currentPage < 1 {
		return []models.FeedbackRecord{}
	}

	start := (currentPage - 1) * pageSize
	if start >= len(records) {
		return []models.FeedbackRecord{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}

	window := make([]models.FeedbackRecord, end-start)
	copy(window, records[start:end])
	return window
}

// NavKind identifies a navigation bar entry
type NavKind int

// Navigation entry kinds
const (
	NavPrevDisabled NavKind = iota
	NavPrev
	NavPageNumber
	NavNext
	NavNextDisabled
)

func (k NavKind) String() string {
	switch k {
	case NavPrevDisabled:
		return "prev-disabled"
	case NavPrev:
		return "prev"
	case NavPageNumber:
		return "page"
	case NavNext:
		return "next"
	case NavNextDisabled:
		return "next-disabled"
	default:
		return "unknown"
	}
}

// NavItem is one entry of the navigation bar. Page is the target page for
// NavPrev, NavNext and NavPageNumber; Active marks the current page number.
type NavItem struct {
	Kind   NavKind
	Page   int
	Active bool
}

// NavDescriptors builds the navigation bar: a prev entry, up to maxShown page
// numbers around currentPage, and a next entry. A single page has no bar.
func NavDescriptors(currentPage, totalPages, maxShown int) []NavItem {
	if totalPages <= 1 {
		return []NavItem{}
	}
	if maxShown < 1 {
		maxShown = DefaultMaxShown
	}
	currentPage = clamp(currentPage, 1, totalPages)

	start := max(1, currentPage-2)
	end := min(totalPages, start+maxShown-1)
	if end-start+1 < maxShown {
		start = max(1, end-maxShown+1)
	}

	items := make([]NavItem, 0, end-start+3)
	if currentPage == 1 {
		items = append(items, NavItem{Kind: NavPrevDisabled})
	} else {
		items = append(items, NavItem{Kind: NavPrev, Page: currentPage - 1})
	}

	for p := start; p <= end; p++ {
		items = append(items, NavItem{Kind: NavPageNumber, Page: p, Active: p == currentPage})
	}

	if currentPage == totalPages {
		items = append(items, NavItem{Kind: NavNextDisabled})
	} else {
		items = append(items, NavItem{Kind: NavNext, Page: currentPage + 1})
	}
	return items
}

// PageNumbers returns just the page numbers of a navigation bar
func PageNumbers(items []NavItem) []int {
	var pages []int
	for _, item := range items {
		if item.Kind == NavPageNumber {
			pages = append(pages, item.Page)
		}
	}
	return pages
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

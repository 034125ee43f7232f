// Package catalog is the client for the book-catalog endpoints: public
// browsing and search, teacher-gated CRUD, and the per-user library.
// Search results come back unordered; sorting and pagination are applied
// client-side, matching the backend's contract.
package catalog

import "sort"

// Book is the catalog record. IDs are assigned by the backend in
// insertion order, which is what the recency sort keys on.
type Book struct {
	ID          int64  `json:"id,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// SortOrder selects a client-side ordering of search results.
type SortOrder string

const (
	SortTitleAsc  SortOrder = "title-asc"
	SortTitleDesc SortOrder = "title-desc"
	SortRecent    SortOrder = "recent" // newest first
	SortOldest    SortOrder = "oldest"
)

// SortBooks returns a sorted copy; the input is left alone. An unknown
// order returns the copy unsorted.
func SortBooks(books []Book, order SortOrder) []Book {
	sorted := make([]Book, len(books))
	copy(sorted, books)

	switch order {
	case SortTitleAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })
	case SortTitleDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title > sorted[j].Title })
	case SortRecent:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	case SortOldest:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	}
	return sorted
}

// DefaultPerPage matches the catalog grid's page size.
const DefaultPerPage = 10

// Page is one window of a result set.
type Page struct {
	Books      []Book
	Number     int // 1-based
	TotalPages int // at least 1, even for an empty result set
}

// Paginate slices books into the requested page. Page numbers are
// clamped into range; perPage <= 0 uses DefaultPerPage.
func Paginate(books []Book, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := (len(books) + perPage - 1) / perPage
	if total < 1 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(books) {
		start = len(books)
	}
	if end > len(books) {
		end = len(books)
	}
	return Page{Books: books[start:end], Number: page, TotalPages: total}
}

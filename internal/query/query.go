// Package query implements the search, category filter and pagination pipeline shared by
// every list a surface renders.
package query

import (
	"strings"
)

// Sentinels that disable the categorical filter. Lists keyed by a free-form name use
// AllCategories; lists keyed by a status use AllStatuses.
const (
	AllCategories = "all"
	AllStatuses   = "All"
)

// Spec describes how one entity kind is searched, filtered and paged.
type Spec[T any] struct {
	// Fields returns the searchable text of a record.
	Fields func(T) []string
	// Category returns the value compared against the categorical filter; nil disables it.
	Category func(T) string
	// FoldCategory compares the category case-insensitively.
	FoldCategory bool
	// All is the exact category value that selects every record. Empty means AllCategories.
	All string
	// Hidden excludes records from the view before searching.
	Hidden func(T) bool
	// PageSize <= 0 disables pagination.
	PageSize int
	// AllowEmpty lets an empty result report zero pages instead of one.
	AllowEmpty bool
}

// Page is one rendered slice of a filtered collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
	PageSize   int `json:"page_size"`
}

// AllValue returns the sentinel that disables the categorical filter.
func (s Spec[T]) AllValue() string {
	if s.All == "" {
		return AllCategories
	}
	return s.All
}

// Filter keeps records whose searchable fields contain search (case-insensitive) and whose
// category equals category, unless category is empty or exactly the spec's All value.
func Filter[T any](all []T, spec Spec[T], search, category string) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	filterCategory := spec.Category != nil && category != "" && category != spec.AllValue()

	out := make([]T, 0, len(all))
	for _, rec := range all {
		if spec.Hidden != nil && spec.Hidden(rec) {
			continue
		}
		if filterCategory && !categoryMatches(spec.Category(rec), category, spec.FoldCategory) {
			continue
		}
		if needle != "" && !matchesAny(spec.Fields(rec), needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func categoryMatches(value, want string, fold bool) bool {
	if fold {
		return strings.EqualFold(value, want)
	}
	return value == want
}

func matchesAny(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// TotalPages returns ceil(n/pageSize), at least 1 unless allowEmpty.
func TotalPages(n, pageSize int, allowEmpty bool) int {
	if pageSize <= 0 {
		return 1
	}
	total := (n + pageSize - 1) / pageSize
	if total < 1 && !allowEmpty {
		total = 1
	}
	return total
}

// ClampPage moves page into [1, totalPages]; with zero pages the page is 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the requested page of filtered, clamping page into range.
func Paginate[T any](filtered []T, page, pageSize int, allowEmpty bool) Page[T] {
	n := len(filtered)
	if pageSize <= 0 {
		return Page[T]{Items: filtered, Page: 1, TotalPages: 1, Total: n}
	}
	total := TotalPages(n, pageSize, allowEmpty)
	page = ClampPage(page, total)

	start := (page - 1) * pageSize
	if start > n {
		start = n
	}
	end := start + pageSize
	if end > n {
		end = n
	}
	items := make([]T, end-start)
	copy(items, filtered[start:end])
	return Page[T]{Items: items, Page: page, TotalPages: total, Total: n, PageSize: pageSize}
}

package query

// View holds the search, category and page state of one rendered list.
// A View is not safe for concurrent use; its owner serializes access.
type View[T any] struct {
	spec     Spec[T]
	search   string
	category string
	page     int
	steps    []int
}

// NewView creates a view on page 1 with no search and the spec's "all" category.
func NewView[T any](spec Spec[T]) *View[T] {
	return &View[T]{spec: spec, category: spec.AllValue(), page: 1}
}

// Search returns the current search term.
func (v *View[T]) Search() string { return v.search }

// Category returns the current category filter.
func (v *View[T]) Category() string { return v.category }

// Page returns the current page as of the last Render.
func (v *View[T]) Page() int { return v.page }

// SetSearch changes the search term and resets to page 1.
func (v *View[T]) SetSearch(search string) {
	v.search = search
	v.page = 1
	v.steps = nil
}

// SetCategory changes the category filter and resets to page 1.
func (v *View[T]) SetCategory(category string) {
	if category == "" {
		category = v.spec.AllValue()
	}
	v.category = category
	v.page = 1
	v.steps = nil
}

// SetPage jumps to page; Render clamps it.
func (v *View[T]) SetPage(page int) {
	v.page = page
	v.steps = nil
}

// Step queues a move of delta pages. Render applies it against the page count of the
// list it renders and ignores a step that would leave [1, total].
func (v *View[T]) Step(delta int) {
	if delta != 0 {
		v.steps = append(v.steps, delta)
	}
}

// Render filters all and returns the current page, remembering the clamped page.
func (v *View[T]) Render(all []T) Page[T] {
	filtered := Filter(all, v.spec, v.search, v.category)
	total := TotalPages(len(filtered), v.spec.PageSize, v.spec.AllowEmpty)
	page := ClampPage(v.page, total)
	for _, delta := range v.steps {
		if next := page + delta; next >= 1 && next <= total {
			page = next
		}
	}
	v.steps = nil

	p := Paginate(filtered, page, v.spec.PageSize, v.spec.AllowEmpty)
	v.page = p.Page
	return p
}

package shared

// Filter carries the paging, ordering and search options shared by list
// queries. Filters holds column-equality constraints keyed by column name.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// DefaultFilter returns the first page of twenty rows, newest first.
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Paged reports whether the filter requests pagination at all. Repositories
// return the full result set when it does not.
func (f Filter) Paged() bool {
	return f.Page > 0 && f.PageSize > 0
}

// Offset returns the row offset for the requested page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

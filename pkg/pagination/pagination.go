package pagination

const (
	// DefaultLimit is the page size used when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any single page can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage treats anything below one as the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize returns params with page and limit clamped into range.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset is the zero-based index of the first row on the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// TotalPages returns how many pages total rows span at the given limit.
func TotalPages(total, limit int) int {
	limit = NormalizeLimit(limit)
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Slice returns the page of items selected by params. Out-of-range pages are empty.
func Slice[T any](items []T, params Params) []T {
	n := params.Normalize()
	start := n.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + n.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

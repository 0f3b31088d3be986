package results

// Page size bounds.
const (
	MinPageSize     = 20
	MaxPageSize     = 300
	DefaultPageSize = 50
)

// Page describes one page of a result list.
type Page struct {
	Current    int `json:"current"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
	PageSize   int `json:"pageSize"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// ClampPageSize limits n to [MinPageSize, MaxPageSize].
func ClampPageSize(n int) int {
	return min(max(n, MinPageSize), MaxPageSize)
}

// Paginate computes the page bounds for total items. There is always at
// least one page, and current is clamped into range.
func Paginate(total, pageSize, current int) Page {
	pageSize = ClampPageSize(pageSize)
	total = max(total, 0)

	pages := max(1, (total+pageSize-1)/pageSize)
	current = min(max(current, 1), pages)

	start := min((current-1)*pageSize, total)
	end := min(start+pageSize, total)
	return Page{
		Current:    current,
		TotalPages: pages,
		TotalItems: total,
		PageSize:   pageSize,
		Start:      start,
		End:        end,
	}
}

// Slice returns the items on p.
func Slice[T any](items []T, p Page) []T {
	start := min(p.Start, len(items))
	end := min(max(p.End, start), len(items))
	return items[start:end]
}

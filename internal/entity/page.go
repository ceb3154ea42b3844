package entity

const (
	DefaultPerPage = 10
	MaxPerPage     = 1000
)

type Page struct {
	Number  int
	PerPage int
}

// NewPage clamps page to >= 1 and perPage to [1, MaxPerPage], using
// DefaultPerPage for non-positive values.
func NewPage(number, perPage int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

func (p Page) Offset() uint64 {
	return uint64((p.Number - 1) * p.PerPage)
}

func (p Page) Limit() uint64 {
	return uint64(p.PerPage)
}

type Pagination struct {
	Total      int `json:"total"`
	PerPage    int `json:"per_page"`
	Page       int `json:"current_page"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.PerPage > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{Total: total, PerPage: p.PerPage, Page: p.Number, TotalPages: pages}
}

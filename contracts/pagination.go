package contracts

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Pagination is the shared page/perPage request fragment.
type Pagination struct {
	Page    int `json:"page,omitempty"`
	PerPage int `json:"perPage,omitempty"`
}

// Limits normalizes the pagination into a LIMIT/OFFSET pair.
func (p Pagination) Limits() (limit, offset int) {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}

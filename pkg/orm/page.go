package orm

import "github.com/marshallshelly/babyorm/pkg/schema"

// DefaultPerPage is used when a non-positive page size is requested.
const DefaultPerPage = 25

// Page is one page of a paginated find.
type Page struct {
	Total       int             `json:"total"`
	PageCount   int             `json:"pageCount"`
	CurrentPage int             `json:"currentPage"`
	PerPage     int             `json:"perPage"`
	Data        []schema.Record `json:"data"`
}

func pageCount(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

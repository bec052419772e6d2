package pagination

// Pagination is the pagination block of an Etsy list response.
type Pagination struct {
	EffectiveLimit  int  `json:"effective_limit"`
	EffectiveOffset int  `json:"effective_offset"`
	NextOffset      *int `json:"next_offset"`
	EffectivePage   int  `json:"effective_page"`
	NextPage        *int `json:"next_page"`
}

// IsLast reports whether this is the last page of the result set.
func (p Pagination) IsLast() bool {
	return p.NextOffset == nil
}

// Page is one bounded slice of a result set.
type Page[T any] struct {
	// Count is the total number of results in the data set, not in this page.
	Count      int
	Results    []T
	Pagination Pagination
}

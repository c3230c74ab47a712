package models

// Filter narrows a lookup by field equality. Zero-valued fields match anything.
type Filter struct {
	Email string
}

// Matches reports whether p satisfies the filter.
func (f Filter) Matches(p *Product) bool {
	return f.Email == "" || p.Email == f.Email
}

// UpdateResult is the outcome of a merge.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult is the outcome of a delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

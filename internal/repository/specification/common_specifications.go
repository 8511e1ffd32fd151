package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable lists the claim columns a caller may order by.
var sortable = map[string]bool{
	"submitted_at": true,
	"created_at":   true,
	"session_id":   true,
	"claim_status": true,
}

// OrderBy sorts by Field. Unknown columns fall back to submitted_at.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	field := s.Field
	if !sortable[field] {
		field = "submitted_at"
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: s.Desc})
}

// Pagination limits the page. A non-positive Limit returns every row.
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	if s.Offset > 0 {
		db = db.Offset(s.Offset)
	}
	if s.Limit <= 0 {
		return db
	}
	return db.Limit(s.Limit)
}

// Package specification holds composable query filters for the claim store.
package specification

import "gorm.io/gorm"

// Specification narrows or orders a claim query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Func adapts a plain function to a Specification.
type Func func(db *gorm.DB) *gorm.DB

func (f Func) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyAll runs specs against db in order. Nil entries are skipped.
func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, s := range specs {
		if s == nil {
			continue
		}
		db = s.Apply(db)
	}
	return db
}

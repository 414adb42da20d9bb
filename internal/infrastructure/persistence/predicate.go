package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate narrows a query. It has the shape of a GORM scope so it can be applied
// with db.Scopes and composed freely.
type Predicate func(*gorm.DB) *gorm.DB

// Apply applies p to db. A nil predicate matches every row.
func (p Predicate) Apply(db *gorm.DB) *gorm.DB {
	if p == nil {
		return db
	}
	return p(db)
}

// All matches every row
func All() Predicate {
	return nil
}

// Eq matches rows whose column equals value. Column names are quoted by the dialect.
func Eq(column string, value any) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
}

// In matches rows whose column is one of values
func In(column string, values ...any) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.IN{Column: clause.Column{Name: column}, Values: values})
	}
}

// ByID matches the row with the given surrogate key
func ByID(id int) Predicate {
	return Eq("id", id)
}

// Where wraps a raw condition with bound arguments
func Where(query string, args ...any) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// And combines predicates; nil entries are skipped
func And(preds ...Predicate) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preds {
			db = p.Apply(db)
		}
		return db
	}
}

// OrderBy orders matching rows by column
func OrderBy(column string, desc bool) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
}

package persistence

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ColumnResolver maps caller-supplied column names onto the columns of a model's
// table. Only names that resolve to a real column are ever placed in SQL.
type ColumnResolver struct {
	db    *gorm.DB
	cache sync.Map
}

// NewColumnResolver creates a resolver that reads table schemas through db
func NewColumnResolver(db *gorm.DB) *ColumnResolver {
	return &ColumnResolver{db: db}
}

// Resolve returns the database column of model that matches column, accepting either
// the column name ("created_date_time") or the Go field name ("CreatedDateTime").
func (r *ColumnResolver) Resolve(model any, column string) (string, error) {
	column = strings.TrimSpace(column)
	if !identifierPattern.MatchString(column) {
		return "", fmt.Errorf("invalid column identifier %q", column)
	}
	s, err := schema.Parse(model, &r.cache, r.db.NamingStrategy)
	if err != nil {
		return "", fmt.Errorf("parse schema: %w", err)
	}
	field := s.LookUpField(column)
	if field == nil || field.DBName == "" {
		return "", fmt.Errorf("unknown column %q on %s", column, s.Table)
	}
	return field.DBName, nil
}

// Key returns a predicate matching exactly the row identified by the primary key
// values of model. Zero values are matched too, so an empty culture selects only
// the global entry instead of every culture.
func (r *ColumnResolver) Key(ctx context.Context, model any) (Predicate, error) {
	s, err := schema.Parse(model, &r.cache, r.db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(s.PrimaryFields) == 0 {
		return nil, fmt.Errorf("%s has no primary key", s.Table)
	}

	rv := reflect.Indirect(reflect.ValueOf(model))
	conds := make([]clause.Expression, 0, len(s.PrimaryFields))
	for _, field := range s.PrimaryFields {
		value, _ := field.ValueOf(ctx, rv)
		conds = append(conds, clause.Eq{Column: clause.Column{Name: field.DBName}, Value: value})
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.And(conds...))
	}, nil
}

// Sort fields per table
var (
	TemplateSortFields = map[string]bool{
		"id":                true,
		"file_name":         true,
		"folder_type":       true,
		"theme_id":          true,
		"created_date_time": true,
		"last_modified":     true,
	}
	ThemeSortFields = map[string]bool{
		"id":                true,
		"name":              true,
		"created_date_time": true,
	}
	ModuleSortFields = map[string]bool{
		"id":                true,
		"name":              true,
		"title":             true,
		"type":              true,
		"created_date_time": true,
		"last_modified":     true,
	}
	PageSortFields = map[string]bool{
		"id":                true,
		"title":             true,
		"seo_name":          true,
		"status":            true,
		"priority":          true,
		"created_date_time": true,
		"last_modified":     true,
	}
	PageModuleSortFields = map[string]bool{
		"position": true,
		"priority": true,
	}
	ConfigurationSortFields = map[string]bool{
		"keyword":  true,
		"category": true,
	}
)

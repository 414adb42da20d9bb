package models

import (
	"time"
)

// ThemeModel is the persistence model of a theme
type ThemeModel struct {
	ID              int       `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"type:varchar(250);not null"`
	Title           string    `gorm:"type:varchar(250)"`
	PreviewURL      string    `gorm:"column:preview_url;type:varchar(450)"`
	CreatedBy       string    `gorm:"type:varchar(250)"`
	CreatedDateTime time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ThemeModel) TableName() string {
	return "sioc_theme"
}

// TemplateModel is the persistence model of a theme template.
// The row carries the content; the template file on the file store mirrors it.
type TemplateModel struct {
	ID              int       `gorm:"primaryKey;autoIncrement"`
	ThemeID         int       `gorm:"not null;index:idx_template_lookup,priority:1"`
	ThemeName       string    `gorm:"type:varchar(250);not null"`
	FolderType      string    `gorm:"type:varchar(50);not null;index:idx_template_lookup,priority:2"`
	FileFolder      string    `gorm:"type:varchar(250);not null"`
	FileName        string    `gorm:"type:varchar(250);not null;index:idx_template_lookup,priority:3"`
	Extension       string    `gorm:"type:varchar(50);not null"`
	Content         string    `gorm:"type:text;not null"`
	MobileContent   string    `gorm:"type:text"`
	SpaContent      string    `gorm:"type:text"`
	Scripts         string    `gorm:"type:text"`
	Styles          string    `gorm:"type:text"`
	CreatedDateTime time.Time `gorm:"not null"`
	LastModified    *time.Time
	ModifiedBy      string `gorm:"type:varchar(250)"`
}

// TableName returns the table name for GORM
func (TemplateModel) TableName() string {
	return "sioc_template"
}

// ModuleModel is the persistence model of a content module
type ModuleModel struct {
	ID              int       `gorm:"primaryKey;autoIncrement"`
	Specificulture  string    `gorm:"type:varchar(10);not null;index"`
	Name            string    `gorm:"type:varchar(250);not null"`
	Title           string    `gorm:"type:varchar(250)"`
	Description     string    `gorm:"type:text"`
	Template        string    `gorm:"type:varchar(250)"`
	Fields          string    `gorm:"type:text"`
	Type            int       `gorm:"not null;default:0"`
	Image           *string   `gorm:"type:varchar(250)"`
	CreatedDateTime time.Time `gorm:"not null"`
	LastModified    *time.Time
}

// TableName returns the table name for GORM
func (ModuleModel) TableName() string {
	return "sioc_module"
}

// PageModel is the persistence model of a page
type PageModel struct {
	ID              int       `gorm:"primaryKey;autoIncrement"`
	Specificulture  string    `gorm:"type:varchar(10);not null;index"`
	Title           string    `gorm:"type:varchar(250);not null"`
	SeoName         string    `gorm:"type:varchar(250);index"`
	Template        string    `gorm:"type:varchar(250)"`
	Type            int       `gorm:"not null;default:0"`
	Status          int       `gorm:"not null;default:2"`
	Priority        int       `gorm:"not null;default:0"`
	CreatedDateTime time.Time `gorm:"not null"`
	LastModified    *time.Time
}

// TableName returns the table name for GORM
func (PageModel) TableName() string {
	return "sioc_page"
}

// PageModuleModel links a module into a page at a position
type PageModuleModel struct {
	PageID         int    `gorm:"primaryKey;autoIncrement:false"`
	ModuleID       int    `gorm:"primaryKey;autoIncrement:false"`
	Specificulture string `gorm:"primaryKey;type:varchar(10)"`
	Position       int    `gorm:"not null;default:0"`
	Priority       int    `gorm:"not null;default:0"`
	Description    string `gorm:"type:varchar(250)"`
}

// TableName returns the table name for GORM
func (PageModuleModel) TableName() string {
	return "sioc_page_module"
}

// ConfigurationModel is one configuration entry keyed by keyword and culture.
// An empty culture marks the global entry used when a culture has none.
type ConfigurationModel struct {
	Keyword        string `gorm:"primaryKey;type:varchar(50)"`
	Specificulture string `gorm:"primaryKey;type:varchar(10)"`
	Category       string `gorm:"type:varchar(250)"`
	DataType       int    `gorm:"not null;default:0"`
	Value          string `gorm:"type:text"`
	Description    string `gorm:"type:varchar(250)"`
}

// TableName returns the table name for GORM
func (ConfigurationModel) TableName() string {
	return "sioc_configuration"
}

// All returns every CMS model, in dependency order, for schema tooling and tests
func All() []any {
	return []any{
		&ThemeModel{},
		&TemplateModel{},
		&ModuleModel{},
		&PageModel{},
		&PageModuleModel{},
		&ConfigurationModel{},
	}
}

// Package models contains the GORM persistence models of the CMS tables.
//
// Models are plain row structs. They are created and changed only through the
// view model repositories, which map them to and from view models explicitly.
//
// Tables:
//   - sioc_theme: themes
//   - sioc_template: theme templates, content backed by files
//   - sioc_module: content modules
//   - sioc_page: pages
//   - sioc_page_module: page to module navigation rows
//   - sioc_configuration: culture-specific configuration entries
package models

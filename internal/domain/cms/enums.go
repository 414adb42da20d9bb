// Package cms holds the enumerations and folder conventions shared by the CMS entities.
package cms

// TemplateFolder is the folder type a theme template lives under
type TemplateFolder string

// Template folders
const (
	TemplateFolderLayouts  TemplateFolder = "Layouts"
	TemplateFolderPages    TemplateFolder = "Pages"
	TemplateFolderModules  TemplateFolder = "Modules"
	TemplateFolderForms    TemplateFolder = "Forms"
	TemplateFolderEdms     TemplateFolder = "Edms"
	TemplateFolderArticles TemplateFolder = "Articles"
	TemplateFolderProducts TemplateFolder = "Products"
	TemplateFolderWidgets  TemplateFolder = "Widgets"
	TemplateFolderMasters  TemplateFolder = "Masters"
)

// TemplateFolders lists every known template folder in display order
var TemplateFolders = []TemplateFolder{
	TemplateFolderLayouts,
	TemplateFolderPages,
	TemplateFolderModules,
	TemplateFolderForms,
	TemplateFolderEdms,
	TemplateFolderArticles,
	TemplateFolderProducts,
	TemplateFolderWidgets,
	TemplateFolderMasters,
}

// IsValid reports whether f is a known template folder
func (f TemplateFolder) IsValid() bool {
	for _, known := range TemplateFolders {
		if f == known {
			return true
		}
	}
	return false
}

// String returns the folder name
func (f TemplateFolder) String() string {
	return string(f)
}

// FileFolder groups uploaded asset files
type FileFolder string

const (
	FileFolderStyles    FileFolder = "Styles"
	FileFolderScripts   FileFolder = "Scripts"
	FileFolderImages    FileFolder = "Images"
	FileFolderFonts     FileFolder = "Fonts"
	FileFolderOthers    FileFolder = "Others"
	FileFolderTemplates FileFolder = "Templates"
)

// PageStatus is the publication status shared by pages and content
type PageStatus int

const (
	PageStatusDeleted   PageStatus = 0
	PageStatusPreview   PageStatus = 1
	PageStatusPublished PageStatus = 2
	PageStatusDraft     PageStatus = 3
	PageStatusSchedule  PageStatus = 4
)

// PageType describes how a page renders its body
type PageType int

const (
	PageTypeBlank       PageType = 0
	PageTypeArticle     PageType = 1
	PageTypeListArticle PageType = 2
	PageTypeHome        PageType = 3
	PageTypeStaticURL   PageType = 4
	PageTypeModules     PageType = 5
	PageTypeListProduct PageType = 6
	PageTypeGallery     PageType = 7
)

// ModuleType describes the data a module carries
type ModuleType int

const (
	ModuleTypeContent     ModuleType = 0
	ModuleTypeData        ModuleType = 1
	ModuleTypeListArticle ModuleType = 2
	ModuleTypeSubPage     ModuleType = 3
	ModuleTypeSubArticle  ModuleType = 4
	ModuleTypeSubProduct  ModuleType = 5
	ModuleTypeListProduct ModuleType = 6
	ModuleTypeGallery     ModuleType = 7
)

// DataType is the declared type of a configuration value or module field
type DataType int

const (
	DataTypeCustom        DataType = 0
	DataTypeDateTime      DataType = 1
	DataTypeDate          DataType = 2
	DataTypeTime          DataType = 3
	DataTypeDuration      DataType = 4
	DataTypePhoneNumber   DataType = 5
	DataTypeCurrency      DataType = 6
	DataTypeText          DataType = 7
	DataTypeHTML          DataType = 8
	DataTypeMultilineText DataType = 9
	DataTypeEmailAddress  DataType = 10
	DataTypePassword      DataType = 11
	DataTypeURL           DataType = 12
	DataTypeImageURL      DataType = 13
	DataTypeCreditCard    DataType = 14
	DataTypePostalCode    DataType = 15
	DataTypeUpload        DataType = 16
	DataTypeColor         DataType = 17
	DataTypeBoolean       DataType = 18
	DataTypeIcon          DataType = 19
	DataTypeVideoYoutube  DataType = 20
)

// ConfigurationCategory groups configuration entries in the admin UI
type ConfigurationCategory string

const (
	ConfigurationCategoryPageSize ConfigurationCategory = "PageSize"
	ConfigurationCategorySite     ConfigurationCategory = "Site"
	ConfigurationCategoryEmail    ConfigurationCategory = "Email"
)

// Configuration keywords resolved through the configuration service
const (
	ConfigThemeID                = "ThemeId"
	ConfigThemeName              = "ThemeName"
	ConfigThemeFolder            = "ThemeFolder"
	ConfigDefaultTheme           = "DefaultTheme"
	ConfigDefaultTemplate        = "DefaultTemplate"
	ConfigTemplateExtension      = "TemplateExtension"
	ConfigDefaultTemplateContent = "DefaultTemplateContent"
)

// Folder roots used for file-backed content
const (
	FolderFileRoot        = "wwwroot"
	FolderTemplatesRoot   = "Views/Shared/Templates"
	FolderTemplatesAssets = "templates"
	FolderModuleImages    = "content/modules"
)

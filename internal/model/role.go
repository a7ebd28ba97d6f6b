package model

// Role groups privileges for operators
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleCatalogAdmin = "CATALOG_ADMIN"
	RoleEditor       = "EDITOR"
)

var DefaultRoles = []Role{
	{
		Code:        RoleCatalogAdmin,
		Name:        "Catalog Administrator",
		Description: "Full catalog access including deletes and imports",
	},
	{
		Code:        RoleEditor,
		Name:        "Catalog Editor",
		Description: "Create and edit products",
	},
}

// EditorPrivileges lists what the EDITOR role receives on seed.
var EditorPrivileges = []string{
	PrivProductView,
	PrivProductCreate,
	PrivProductUpdate,
	PrivCategoryView,
	PrivDashboardView,
}

package model

// Privilege represents a permission that can be assigned to operators
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"
	PrivCategoryView  = "category:view"
	PrivCatalogImport = "catalog:import"
	PrivDashboardView = "dashboard:view"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivCategoryView, Name: "View Category"},
	{Code: PrivCatalogImport, Name: "Import Catalog"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

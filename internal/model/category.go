package model

// Category is read-only for the catalog workflows; rows are managed elsewhere
// and seeded with defaults on first start.
type Category struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"type:varchar(255);uniqueIndex;not null" json:"title"`
}

// ProductCategory is one row of the association table. The composite key
// makes duplicate links impossible.
type ProductCategory struct {
	ProductID  uint `gorm:"primaryKey;autoIncrement:false" json:"productId"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false" json:"categoryId"`
}

func (ProductCategory) TableName() string {
	return "categories_products"
}

var DefaultCategories = []Category{
	{Title: "Furniture"},
	{Title: "Lighting"},
	{Title: "Decor"},
	{Title: "Kitchen"},
	{Title: "Outdoor"},
}

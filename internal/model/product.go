package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Image is an uploaded product picture. Name is the object key inside the
// storage bucket.
type Image struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"lastModified"`
	URL          string `json:"url" validate:"required"`
}

type Product struct {
	ID          uint                       `gorm:"primaryKey" json:"id"`
	Name        string                     `gorm:"type:varchar(255);not null" json:"name"`
	Description string                     `gorm:"type:text" json:"description"`
	Price       decimal.Decimal            `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive    bool                       `gorm:"default:false" json:"isActive"`
	Images      datatypes.JSONSlice[Image] `json:"images"`
	Stock       *int                       `json:"stock"`
	Categories  []Category                 `gorm:"many2many:categories_products;" json:"categories,omitempty"`
	Audit
}

// CategoryIDs returns the ids of the preloaded categories.
func (p *Product) CategoryIDs() []uint {
	ids := make([]uint, len(p.Categories))
	for i, c := range p.Categories {
		ids[i] = c.ID
	}
	return ids
}

// ImageNames returns the storage object keys of the product images.
func (p *Product) ImageNames() []string {
	names := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Name != "" {
			names = append(names, img.Name)
		}
	}
	return names
}

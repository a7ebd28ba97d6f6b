package workflow

import (
	"strings"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/pkg/validator"

	"github.com/shopspring/decimal"
)

// ProductDraft is the product form shared by the create and edit drawers.
// Categories are not part of it; they travel in the workflow's Selection.
// A product keeps exactly one active image; a new upload replaces it.
type ProductDraft struct {
	ID          *uint            `json:"id,omitempty"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,nonneg_decimal"`
	IsActive    bool             `json:"isActive"`
	Images      []model.Image    `json:"images" validate:"min=1,max=1,dive"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// CategoryRule is the derived category requirement evaluated at submit time.
// A create needs at least one category. An edit may keep an empty stored set,
// but an operator who changes the selection must leave something selected.
func CategoryRule(sel *Selection, mode repository.WriteMode) *validator.FieldError {
	required := sel.Len() == 0
	if mode == repository.WriteEdit {
		required = required && sel.Touched()
	}
	if required {
		return &validator.FieldError{FailedField: "categoryIds", Tag: "required"}
	}
	return nil
}

// Validate checks the draft fields and the category rule together.
func Validate(d *ProductDraft, sel *Selection, mode repository.WriteMode) error {
	d.normalize()

	fields := validator.ValidateStruct(d)
	if mode == repository.WriteEdit && (d.ID == nil || *d.ID == 0) {
		fields = append(fields, &validator.FieldError{FailedField: "id", Tag: "required"})
	}
	if fe := CategoryRule(sel, mode); fe != nil {
		fields = append(fields, fe)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (d *ProductDraft) normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
}

// apply copies the form fields onto p. Price must already be validated.
func (d *ProductDraft) apply(p *model.Product) {
	p.Name = d.Name
	p.Description = d.Description
	p.Price = d.Price.Round(2)
	p.IsActive = d.IsActive
	p.Images = append([]model.Image(nil), d.Images...)
	p.Stock = d.Stock
	if d.ID != nil {
		p.ID = *d.ID
	}
}

// DraftFrom builds an edit draft from a stored product.
func DraftFrom(p *model.Product) *ProductDraft {
	id := p.ID
	price := p.Price
	return &ProductDraft{
		ID:          &id,
		Name:        p.Name,
		Description: p.Description,
		Price:       &price,
		IsActive:    p.IsActive,
		Images:      append([]model.Image(nil), p.Images...),
		Stock:       p.Stock,
	}
}

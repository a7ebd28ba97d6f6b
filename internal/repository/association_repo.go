package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-catalog-admin/internal/model"

	"gorm.io/gorm"
)

// WriteMode selects how Replace treats existing association rows.
type WriteMode int

const (
	// WriteCreate inserts only; the product is new and has no rows yet.
	WriteCreate WriteMode = iota
	// WriteEdit deletes every existing row for the product, then inserts.
	WriteEdit
)

func (m WriteMode) String() string {
	if m == WriteEdit {
		return "edit"
	}
	return "create"
}

type WriteOp string

const (
	OpDelete WriteOp = "delete"
	OpInsert WriteOp = "insert"
)

var ErrNoCategories = errors.New("no categories selected")

// WriteError reports which association operation failed and the id set it
// attempted.
type WriteError struct {
	Op          WriteOp
	ProductID   uint
	CategoryIDs []uint
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s associations for product %d (categories %v): %v", e.Op, e.ProductID, e.CategoryIDs, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type AssociationWriter interface {
	Replace(ctx context.Context, productID uint, categoryIDs []uint, mode WriteMode) error
	FindCategoryIDs(ctx context.Context, productID uint) ([]uint, error)
}

type associationWriter struct {
	db *gorm.DB
}

func NewAssociationWriter(db *gorm.DB) AssociationWriter {
	return &associationWriter{db}
}

// Replace makes the product's association set equal to categoryIDs. The
// delete and the batch insert share one transaction, so a failed insert
// leaves the previous rows in place and commits none of the new ones.
func (w *associationWriter) Replace(ctx context.Context, productID uint, categoryIDs []uint, mode WriteMode) error {
	ids := UniqueIDs(categoryIDs)
	if mode == WriteCreate && len(ids) == 0 {
		return &WriteError{Op: OpInsert, ProductID: productID, CategoryIDs: ids, Err: ErrNoCategories}
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if mode == WriteEdit {
			if err := tx.Where("product_id = ?", productID).Delete(&model.ProductCategory{}).Error; err != nil {
				return &WriteError{Op: OpDelete, ProductID: productID, CategoryIDs: ids, Err: err}
			}
		}
		if len(ids) == 0 {
			return nil
		}

		rows := make([]model.ProductCategory, len(ids))
		for i, id := range ids {
			rows[i] = model.ProductCategory{ProductID: productID, CategoryID: id}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return &WriteError{Op: OpInsert, ProductID: productID, CategoryIDs: ids, Err: err}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	// begin or commit failed
	op := OpInsert
	if len(ids) == 0 {
		op = OpDelete
	}
	return &WriteError{Op: op, ProductID: productID, CategoryIDs: ids, Err: err}
}

func (w *associationWriter) FindCategoryIDs(ctx context.Context, productID uint) ([]uint, error) {
	ids := []uint{}
	err := w.db.WithContext(ctx).
		Model(&model.ProductCategory{}).
		Where("product_id = ?", productID).
		Order("category_id").
		Pluck("category_id", &ids).Error
	return ids, err
}

// UniqueIDs returns the ids sorted ascending with duplicates and zeros removed.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

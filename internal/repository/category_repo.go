package repository

import (
	"context"

	"go-catalog-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Category, error)
	FindByTitle(ctx context.Context, title string) (*model.Category, error)
	SeedDefaults(ctx context.Context) error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.db.WithContext(ctx).Order("title ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.Category, error) {
	categories := []model.Category{}
	if len(ids) == 0 {
		return categories, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByTitle(ctx context.Context, title string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("LOWER(title) = LOWER(?)", title).First(&category).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SeedDefaults inserts the default categories that are not present yet.
func (r *categoryRepo) SeedDefaults(ctx context.Context) error {
	defaults := make([]model.Category, len(model.DefaultCategories))
	copy(defaults, model.DefaultCategories)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "title"}}, DoNothing: true}).
		Create(&defaults).Error
}

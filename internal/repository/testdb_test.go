package repository

import (
	"context"
	"testing"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/pkg/database"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCategories(t *testing.T, db *gorm.DB, titles ...string) []model.Category {
	t.Helper()
	cats := make([]model.Category, len(titles))
	for i, title := range titles {
		cats[i] = model.Category{Title: title}
	}
	if err := db.Create(&cats).Error; err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	return cats
}

func newProduct(name, price string) *model.Product {
	return &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Images:      []model.Image{{Name: "a-" + name + ".png", URL: "http://cdn/" + name + ".png"}},
	}
}

func mustCreate(t *testing.T, repo ProductRepository, p *model.Product) *model.Product {
	t.Helper()
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create %s: %v", p.Name, err)
	}
	return p
}

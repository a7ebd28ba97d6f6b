package repository

import (
	"context"
	"errors"
	"math"
	"strings"

	"go-catalog-admin/internal/model"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// ProductFilter narrows a catalog page. Page is 1-based; a zero PageSize
// returns every matching row.
type ProductFilter struct {
	NameContains string
	CategoryIDs  []uint
	Page         int
	PageSize     int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	DeleteWithAssociations(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindPage(ctx context.Context, f ProductFilter) ([]model.Product, int64, error)
	UpdateStock(ctx context.Context, id uint, stock int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// Create inserts the product row only; category links are written by the
// AssociationWriter.
func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Categories").Create(product).Error
}

// Update writes the form fields. A nil Stock keeps the stored value; stock is
// owned by UpdateStock.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	columns := []string{"name", "description", "price", "is_active", "images", "updated_by", "updated_at"}
	if product.Stock != nil {
		columns = append(columns, "stock")
	}
	res := r.db.WithContext(ctx).
		Model(product).
		Select(columns).
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product row. It is the compensating action of the
// create workflow, so it never soft-deletes.
func (r *productRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) DeleteWithAssociations(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Preload("Categories").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindPage(ctx context.Context, f ProductFilter) ([]model.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(filterProducts(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Scopes(filterProducts(f)).
		Preload("Categories").
		Order("products.id DESC")
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		if page-1 > math.MaxInt/f.PageSize {
			return []model.Product{}, total, nil
		}
		query = query.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	products := []model.Product{}
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepo) UpdateStock(ctx context.Context, id uint, stock int, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// filterProducts applies the name and category filters. Name matching is a
// case-insensitive substring match; the category filter keeps products linked
// to ANY of the ids and, being an EXISTS check, yields each product once.
func filterProducts(f ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if name := strings.TrimSpace(f.NameContains); name != "" {
			db = db.Where("LOWER(products.name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(name))+"%")
		}
		if len(f.CategoryIDs) > 0 {
			db = db.Where(
				"EXISTS (SELECT 1 FROM categories_products cp WHERE cp.product_id = products.id AND cp.category_id IN ?)",
				f.CategoryIDs,
			)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

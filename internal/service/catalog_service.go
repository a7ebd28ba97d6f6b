package service

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go-catalog-admin/config"
	"go-catalog-admin/internal/cache"
	"go-catalog-admin/internal/importer"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/internal/storage"
	"go-catalog-admin/internal/workflow"
	"go-catalog-admin/pkg/validator"

	"go.uber.org/zap"
)

// ProductRequest is the body of the create and edit drawers. CategoryIDs is
// the drawer's category selection; on edit, omitting it keeps the stored set.
type ProductRequest struct {
	workflow.ProductDraft
	CategoryIDs []uint `json:"categoryIds"`
}

type ProductPage struct {
	Items     []model.Product `json:"items"`
	Total     int64           `json:"total"`
	Page      int             `json:"page"`
	PageSize  int             `json:"pageSize"`
	PageCount int             `json:"pageCount"`
}

type ImportRowResult struct {
	Line      int    `json:"line"`
	Name      string `json:"name"`
	ProductID uint   `json:"productId,omitempty"`
	Created   bool   `json:"created"`
	Error     string `json:"error,omitempty"`
}

type ImportReport struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Rows    []ImportRowResult `json:"rows"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, f repository.ProductFilter) (*ProductPage, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, actor string, req *ProductRequest) (*workflow.Outcome, error)
	UpdateProduct(ctx context.Context, actor string, id uint, req *ProductRequest) (*workflow.Outcome, error)
	DeleteProduct(ctx context.Context, actor string, id uint) error
	UpdateStock(ctx context.Context, actor string, id uint, stock int) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ImportProducts(ctx context.Context, actor string, data []byte) (*ImportReport, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	links        repository.AssociationWriter
	storage      storage.Client
	cache        cache.CategoryCache
	notifier     notify.Notifier
	guard        *workflow.Guard
	cfg          config.CatalogConfig
	bucket       string
	logger       *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	links repository.AssociationWriter,
	store storage.Client,
	categoryCache cache.CategoryCache,
	notifier notify.Notifier,
	cfg config.CatalogConfig,
	bucket string,
	logger *zap.Logger,
) CatalogService {
	if categoryCache == nil {
		categoryCache = cache.NewNopCategoryCache()
	}
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		links:        links,
		storage:      store,
		cache:        categoryCache,
		notifier:     notifier,
		guard:        workflow.NewGuard(),
		cfg:          cfg,
		bucket:       bucket,
		logger:       logger.Named("catalog"),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, f repository.ProductFilter) (*ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && f.PageSize > s.cfg.MaxPageSize {
		f.PageSize = s.cfg.MaxPageSize
	}
	f.CategoryIDs = repository.UniqueIDs(f.CategoryIDs)

	items, total, err := s.productRepo.FindPage(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Items:     items,
		Total:     total,
		Page:      f.Page,
		PageSize:  f.PageSize,
		PageCount: pageCount(total, f.PageSize),
	}, nil
}

func pageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) workflowOptions(actor string) workflow.Options {
	return workflow.Options{
		Actor:            actor,
		RollbackAttempts: s.cfg.RollbackAttempts,
		RollbackBackoff:  s.cfg.RollbackBackoff,
		Logger:           s.logger,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, actor string, req *ProductRequest) (*workflow.Outcome, error) {
	release, err := s.guard.Acquire(actor, workflow.DrawerCreate)
	if err != nil {
		return nil, err
	}
	defer release()

	wf := workflow.NewCreateWorkflow(s.productRepo, s.links, s.notifier, s.workflowOptions(actor))
	wf.Open()
	wf.SelectCategories(req.CategoryIDs)

	out, err := wf.Submit(ctx, &req.ProductDraft)
	if err != nil {
		return out, err
	}
	s.reload(ctx, out)
	return out, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actor string, id uint, req *ProductRequest) (*workflow.Outcome, error) {
	release, err := s.guard.Acquire(actor, workflow.DrawerEdit)
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wf := workflow.NewEditWorkflow(s.productRepo, s.links, s.notifier, s.workflowOptions(actor))
	wf.Load(stored)
	if req.CategoryIDs != nil {
		wf.SelectCategories(req.CategoryIDs)
	}
	req.ProductDraft.ID = &id

	out, err := wf.Submit(ctx, &req.ProductDraft)
	if out != nil && out.Product != nil {
		s.reload(ctx, out)
	}
	return out, err
}

// reload replaces the outcome product with the stored row and its categories.
func (s *catalogService) reload(ctx context.Context, out *workflow.Outcome) {
	if out == nil || out.Product == nil {
		return
	}
	fresh, err := s.productRepo.FindByID(ctx, out.Product.ID)
	if err != nil {
		s.logger.Warn("Failed to reload product", zap.Uint("product_id", out.Product.ID), zap.Error(err))
		return
	}
	out.Product = fresh
}

// DeleteProduct removes the product with its category links, then its images.
// A storage failure leaves orphaned objects behind and is only logged.
func (s *catalogService) DeleteProduct(ctx context.Context, actor string, id uint) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.DeleteWithAssociations(ctx, id); err != nil {
		return err
	}

	if names := product.ImageNames(); len(names) > 0 && s.storage != nil {
		if err := s.storage.Remove(ctx, s.bucket, names); err != nil {
			s.logger.Warn("Failed to remove product images",
				zap.Uint("product_id", id), zap.Strings("objects", names), zap.Error(err))
		}
	}

	s.notify(ctx, notify.Notification{
		Type:        notify.Success,
		Action:      notify.ActionProductDeleted,
		Message:     "Product deleted",
		Description: product.Name,
		ProductID:   id,
		Actor:       actor,
	})
	return nil
}

func (s *catalogService) UpdateStock(ctx context.Context, actor string, id uint, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, &workflow.ValidationError{Fields: []*validator.FieldError{{FailedField: "stock", Tag: "gte", Value: "0"}}}
	}
	if err := s.productRepo.UpdateStock(ctx, id, stock, actor); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notify.Notification{
		Type:        notify.Success,
		Action:      notify.ActionStockUpdated,
		Message:     "Stock updated",
		Description: fmt.Sprintf("%s: %d", product.Name, stock),
		ProductID:   id,
		Actor:       actor,
	})
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	if categories, ok := s.cache.GetCategories(ctx); ok {
		return categories, nil
	}
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetCategories(ctx, categories)
	return categories, nil
}

// ImportProducts runs every sheet row through the create workflow. Rows fail
// independently; a failed row never stops the import.
func (s *catalogService) ImportProducts(ctx context.Context, actor string, data []byte) (*ImportReport, error) {
	rows, err := importer.ParseProducts(data)
	if err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(actor, workflow.DrawerCreate)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &ImportReport{Rows: make([]ImportRowResult, 0, len(rows))}
	for _, row := range rows {
		result := ImportRowResult{Line: row.Line, Name: row.Name}
		productID, err := s.importRow(ctx, actor, row)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
		} else {
			result.ProductID = productID
			result.Created = true
			report.Created++
		}
		report.Rows = append(report.Rows, result)
	}

	s.logger.Info("Catalog import finished",
		zap.String("actor", actor), zap.Int("created", report.Created), zap.Int("failed", report.Failed))
	return report, nil
}

func (s *catalogService) importRow(ctx context.Context, actor string, row importer.Row) (uint, error) {
	if row.Err != nil {
		return 0, row.Err
	}

	categoryIDs := append([]uint(nil), row.CategoryIDs...)
	for _, title := range row.CategoryTitles {
		category, err := s.categoryRepo.FindByTitle(ctx, title)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, fmt.Errorf("unknown category %q", title)
			}
			return 0, err
		}
		categoryIDs = append(categoryIDs, category.ID)
	}

	draft := &workflow.ProductDraft{
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		IsActive:    row.IsActive,
		Stock:       row.Stock,
	}
	if row.ImageURL != "" {
		draft.Images = []model.Image{{Name: path.Base(row.ImageURL), URL: row.ImageURL}}
	}

	wf := workflow.NewCreateWorkflow(s.productRepo, s.links, s.notifier, s.workflowOptions(actor))
	wf.SelectCategories(categoryIDs)
	out, err := wf.Submit(ctx, draft)
	if err != nil {
		return 0, err
	}
	return out.Product.ID, nil
}

func (s *catalogService) notify(ctx context.Context, n notify.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

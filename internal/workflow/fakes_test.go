package workflow

import (
	"context"
	"errors"
	"sync"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/repository"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu         sync.Mutex
	nextID     uint
	rows       map[uint]model.Product
	createErr  error
	updateErr  error
	deleteErrs []error // consumed one per Delete call
	deletes    int
	block      chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, rows: map[uint]model.Product{}}
}

func (s *fakeStore) Create(_ context.Context, p *model.Product) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	p.ID = s.nextID
	s.nextID++
	s.rows[p.ID] = *p
	return nil
}

func (s *fakeStore) Update(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.rows[p.ID]; !ok {
		return repository.ErrNotFound
	}
	s.rows[p.ID] = *p
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if len(s.deleteErrs) > 0 {
		err := s.deleteErrs[0]
		s.deleteErrs = s.deleteErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) get(id uint) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	return p, ok
}

type fakeLinks struct {
	mu    sync.Mutex
	links map[uint][]uint
	err   error
	calls int
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{links: map[uint][]uint{}}
}

func (l *fakeLinks) Replace(_ context.Context, productID uint, ids []uint, mode repository.WriteMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	ids = repository.UniqueIDs(ids)
	if l.err != nil {
		return &repository.WriteError{Op: repository.OpInsert, ProductID: productID, CategoryIDs: ids, Err: l.err}
	}
	if mode == repository.WriteCreate && len(ids) == 0 {
		return &repository.WriteError{Op: repository.OpInsert, ProductID: productID, Err: repository.ErrNoCategories}
	}
	l.links[productID] = ids
	return nil
}

func (l *fakeLinks) FindCategoryIDs(_ context.Context, productID uint) ([]uint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint{}, l.links[productID]...), nil
}

var errBoom = errors.New("boom")

func lampDraft() *ProductDraft {
	price := decimal.RequireFromString("29.99")
	return &ProductDraft{
		Name:        "Lamp",
		Description: "Desk lamp",
		Price:       &price,
		Images:      []model.Image{{Name: "k-lamp.png", Type: "image/png", Size: 10, URL: "https://cdn/lamp.png"}},
	}
}

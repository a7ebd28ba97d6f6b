package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

func seededEdit(t *testing.T, categoryIDs ...uint) (*EditWorkflow, *fakeStore, *fakeLinks, *notify.Recorder, *model.Product) {
	t.Helper()
	store, links, rec := newFakeStore(), newFakeLinks(), &notify.Recorder{}

	stored := &model.Product{Name: "Lamp", Price: decimal.RequireFromString("29.99"),
		Images: []model.Image{{Name: "k-lamp.png", URL: "https://cdn/lamp.png"}}}
	if err := store.Create(context.Background(), stored); err != nil {
		t.Fatal(err)
	}
	links.links[stored.ID] = categoryIDs
	for _, id := range categoryIDs {
		stored.Categories = append(stored.Categories, model.Category{ID: id})
	}

	wf := NewEditWorkflow(store, links, rec, Options{Actor: "editor", Logger: zaptest.NewLogger(t)})
	wf.Load(stored)
	return wf, store, links, rec, stored
}

func TestEdit_ReplacesNotUnions(t *testing.T) {
	wf, store, links, rec, stored := seededEdit(t, 1, 2)
	wf.SelectCategories([]uint{3, 2})

	draft := DraftFrom(stored)
	newPrice := decimal.RequireFromString("35")
	draft.Price = &newPrice

	out, err := wf.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.State != StateAssociationsReplaced || out.DrawerOpen {
		t.Errorf("unexpected outcome %+v", out)
	}
	if got := links.links[stored.ID]; !reflect.DeepEqual(got, []uint{2, 3}) {
		t.Errorf("expected [2 3], got %v", got)
	}
	p, _ := store.get(stored.ID)
	if !p.Price.Equal(newPrice) || p.UpdatedBy != "editor" {
		t.Errorf("update not applied: %+v", p)
	}
	if n, _ := rec.Last(); n.Action != notify.ActionProductUpdated {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestEdit_UntouchedSelectionKeepsStoredCategories(t *testing.T) {
	wf, _, links, _, stored := seededEdit(t, 4)

	if _, err := wf.Submit(context.Background(), DraftFrom(stored)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := links.links[stored.ID]; !reflect.DeepEqual(got, []uint{4}) {
		t.Errorf("expected [4], got %v", got)
	}
}

func TestEdit_StoredEmptySelectionIsAccepted(t *testing.T) {
	wf, _, links, _, stored := seededEdit(t)

	if _, err := wf.Submit(context.Background(), DraftFrom(stored)); err != nil {
		t.Fatalf("untouched empty selection should pass, got %v", err)
	}
	if links.calls != 1 || len(links.links[stored.ID]) != 0 {
		t.Errorf("expected a delete-only replace, got calls=%d links=%v", links.calls, links.links[stored.ID])
	}
}

func TestEdit_ClearedSelectionIsRejected(t *testing.T) {
	wf, _, links, _, stored := seededEdit(t, 1)
	wf.SelectCategories(nil)

	_, err := wf.Submit(context.Background(), DraftFrom(stored))

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].FailedField != "categoryIds" {
		t.Fatalf("expected categoryIds validation error, got %v", err)
	}
	if links.calls != 0 {
		t.Errorf("writer must not be called")
	}
}

func TestEdit_AssociationFailureKeepsUpdate(t *testing.T) {
	wf, store, links, rec, stored := seededEdit(t, 1)
	links.err = errBoom
	wf.SelectCategories([]uint{2})
	draft := DraftFrom(stored)
	draft.Name = "Lamp XL"

	out, err := wf.Submit(context.Background(), draft)

	var ae *AssociationWriteError
	if !errors.As(err, &ae) || ae.RolledBack {
		t.Fatalf("expected AssociationWriteError without rollback, got %v", err)
	}
	p, ok := store.get(stored.ID)
	if !ok || p.Name != "Lamp XL" {
		t.Errorf("update must persist, got %+v", p)
	}
	if store.deletes != 0 {
		t.Errorf("edit never deletes, got %d deletes", store.deletes)
	}
	if out.State != StateIdle || !out.DrawerOpen {
		t.Errorf("unexpected outcome %+v", out)
	}
	if n, _ := rec.Last(); n.Type != notify.Error {
		t.Errorf("expected error notification, got %+v", n)
	}
}

func TestEdit_UpdateFailureSkipsWriter(t *testing.T) {
	wf, _, links, _, _ := seededEdit(t, 1)
	missing := uint(99)
	draft := lampDraft()
	draft.ID = &missing

	_, err := wf.Submit(context.Background(), draft)

	var ue *UpdateError
	if !errors.As(err, &ue) || !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected UpdateError wrapping ErrNotFound, got %v", err)
	}
	if links.calls != 0 {
		t.Errorf("writer must not run after a failed update")
	}
}

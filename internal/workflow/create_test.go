package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newCreate(t *testing.T, store *fakeStore, links *fakeLinks, rec *notify.Recorder) *CreateWorkflow {
	t.Helper()
	return NewCreateWorkflow(store, links, rec, Options{
		Actor:            "ops@example.com",
		RollbackAttempts: 3,
		Logger:           zaptest.NewLogger(t),
	})
}

func TestCreate_LampScenario(t *testing.T) {
	store, links, rec := newFakeStore(), newFakeLinks(), &notify.Recorder{}
	wf := newCreate(t, store, links, rec)
	wf.Open()
	wf.SelectCategories([]uint{2, 1, 2})

	out, err := wf.Submit(context.Background(), lampDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if out.State != StateAssociationsWritten || out.DrawerOpen {
		t.Errorf("expected closed drawer in %s, got %+v", StateAssociationsWritten, out)
	}
	p, ok := store.get(out.Product.ID)
	if !ok || p.Name != "Lamp" || !p.Price.Equal(decimal.RequireFromString("29.99")) {
		t.Fatalf("expected Lamp persisted, got %+v", p)
	}
	if p.CreatedBy != "ops@example.com" {
		t.Errorf("expected actor recorded, got %q", p.CreatedBy)
	}
	if got := links.links[p.ID]; !reflect.DeepEqual(got, []uint{1, 2}) {
		t.Errorf("expected links [1 2], got %v", got)
	}
	if !reflect.DeepEqual(out.CategoryIDs, []uint{1, 2}) {
		t.Errorf("expected outcome ids [1 2], got %v", out.CategoryIDs)
	}
	if len(wf.SelectedIDs()) != 0 {
		t.Errorf("selection should be cleared, got %v", wf.SelectedIDs())
	}
	n, _ := rec.Last()
	if n.Type != notify.Success || n.Action != notify.ActionProductCreated || n.ProductID != p.ID {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestCreate_AssociationFailureRollsBack(t *testing.T) {
	store, links, rec := newFakeStore(), newFakeLinks(), &notify.Recorder{}
	links.err = errBoom
	wf := newCreate(t, store, links, rec)
	wf.Open()
	wf.SelectCategories([]uint{1, 2})

	out, err := wf.Submit(context.Background(), lampDraft())

	var ae *AssociationWriteError
	if !errors.As(err, &ae) || !ae.RolledBack {
		t.Fatalf("expected rolled back AssociationWriteError, got %v", err)
	}
	var we *repository.WriteError
	if !errors.As(err, &we) || we.Op != repository.OpInsert {
		t.Errorf("expected the insert WriteError underneath, got %v", err)
	}
	if _, ok := store.get(ae.ProductID); ok {
		t.Errorf("product %d must not survive the rollback", ae.ProductID)
	}
	if out.State != StateIdle || !out.DrawerOpen || len(out.CategoryIDs) != 0 {
		t.Errorf("expected idle, reopened drawer, cleared selection; got %+v", out)
	}
	n, _ := rec.Last()
	if n.Type != notify.Error || n.Action != notify.ActionProductCreateFailed {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestCreate_CompensatingDeleteRetries(t *testing.T) {
	store, links := newFakeStore(), newFakeLinks()
	links.err = errBoom
	store.deleteErrs = []error{errBoom, nil}
	wf := newCreate(t, store, links, &notify.Recorder{})
	wf.SelectCategories([]uint{1})

	_, err := wf.Submit(context.Background(), lampDraft())

	var cde *CompensatingDeleteError
	if errors.As(err, &cde) {
		t.Fatalf("second attempt succeeded, expected no CompensatingDeleteError: %v", err)
	}
	if store.deletes != 2 {
		t.Errorf("expected 2 delete attempts, got %d", store.deletes)
	}
	if len(store.rows) != 0 {
		t.Errorf("expected product removed, got %v", store.rows)
	}
}

func TestCreate_CompensatingDeleteFailureIsLoggedAndReturned(t *testing.T) {
	store, links := newFakeStore(), newFakeLinks()
	links.err = errBoom
	dbDown := errors.New("db down")
	store.deleteErrs = []error{dbDown, dbDown, dbDown}

	core, logs := observer.New(zap.WarnLevel)
	wf := NewCreateWorkflow(store, links, &notify.Recorder{}, Options{
		RollbackAttempts: 3,
		RollbackBackoff:  time.Millisecond,
		Logger:           zap.New(core),
	})
	wf.SelectCategories([]uint{1})

	_, err := wf.Submit(context.Background(), lampDraft())

	var cde *CompensatingDeleteError
	if !errors.As(err, &cde) || cde.Attempts != 3 || !errors.Is(err, dbDown) {
		t.Fatalf("expected CompensatingDeleteError after 3 attempts, got %v", err)
	}
	var ae *AssociationWriteError
	if !errors.As(err, &ae) || ae.RolledBack {
		t.Errorf("expected AssociationWriteError with RolledBack=false, got %v", err)
	}
	if logs.FilterLevelExact(zap.ErrorLevel).FilterMessageSnippet("compensating delete failed").Len() != 1 {
		t.Errorf("expected one error log for the failed rollback, got %v", logs.All())
	}
}

func TestCreate_EmptySelectionBlocksSubmit(t *testing.T) {
	store, links := newFakeStore(), newFakeLinks()
	wf := newCreate(t, store, links, &notify.Recorder{})

	out, err := wf.Submit(context.Background(), lampDraft())

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].FailedField != "categoryIds" {
		t.Errorf("unexpected fields %+v", ve.Fields)
	}
	if out.State != StateIdle || len(store.rows) != 0 || links.calls != 0 {
		t.Errorf("validation must not reach storage: %+v", out)
	}
}

func TestCreate_InvalidDraftReportsEveryField(t *testing.T) {
	wf := newCreate(t, newFakeStore(), newFakeLinks(), &notify.Recorder{})
	wf.SelectCategories([]uint{1})
	neg := decimal.RequireFromString("-3")
	stock := -1

	_, err := wf.Submit(context.Background(), &ProductDraft{Name: "   ", Price: &neg, Stock: &stock})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range ve.Fields {
		got[f.FailedField] = true
	}
	for _, want := range []string{"name", "price", "images", "stock"} {
		if !got[want] {
			t.Errorf("expected %s in %v", want, got)
		}
	}
}

func TestCreate_OnlyOneImageIsKept(t *testing.T) {
	store := newFakeStore()
	wf := newCreate(t, store, newFakeLinks(), &notify.Recorder{})
	wf.SelectCategories([]uint{1})
	draft := lampDraft()
	draft.Images = append(draft.Images, model.Image{Name: "k-lamp-2.png", URL: "https://cdn/lamp-2.png"})

	_, err := wf.Submit(context.Background(), draft)

	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 1 || ve.Fields[0].FailedField != "images" || ve.Fields[0].Tag != "max" {
		t.Fatalf("expected images max error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Errorf("nothing should be stored, got %v", store.rows)
	}
}

func TestCreate_InsertFailureKeepsDrawerAndSelection(t *testing.T) {
	store, links, rec := newFakeStore(), newFakeLinks(), &notify.Recorder{}
	store.createErr = errBoom
	wf := newCreate(t, store, links, rec)
	wf.Open()
	wf.SelectCategories([]uint{4})

	out, err := wf.Submit(context.Background(), lampDraft())

	var ce *CreateError
	if !errors.As(err, &ce) || !errors.Is(err, errBoom) {
		t.Fatalf("expected CreateError, got %v", err)
	}
	if links.calls != 0 || store.deletes != 0 {
		t.Errorf("no association write or rollback expected, got %d/%d", links.calls, store.deletes)
	}
	if !out.DrawerOpen || !reflect.DeepEqual(out.CategoryIDs, []uint{4}) {
		t.Errorf("expected form intact for retry, got %+v", out)
	}
	if n, _ := rec.Last(); n.Type != notify.Error {
		t.Errorf("expected error notification, got %+v", n)
	}
}

func TestCreate_CloseInFlightDoesNotReopen(t *testing.T) {
	store, links, rec := newFakeStore(), newFakeLinks(), &notify.Recorder{}
	store.block = make(chan struct{})
	links.err = errBoom
	wf := newCreate(t, store, links, rec)
	wf.Open()
	wf.SelectCategories([]uint{1})

	done := make(chan *Outcome)
	go func() {
		out, _ := wf.Submit(context.Background(), lampDraft())
		done <- out
	}()

	waitForState(t, wf.State, StateSubmitting)
	if _, err := wf.Submit(context.Background(), lampDraft()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy while submitting, got %v", err)
	}
	wf.Close()
	close(store.block)

	out := <-done
	if out.DrawerOpen || wf.DrawerOpen() {
		t.Errorf("drawer closed mid-flight must stay closed, got %+v", out)
	}
	if len(rec.Notifications) != 1 {
		t.Errorf("expected the failure to still be notified, got %d", len(rec.Notifications))
	}
}

func waitForState(t *testing.T, state func() State, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for state() != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, state is %s", want, state())
		}
		time.Sleep(time.Millisecond)
	}
}

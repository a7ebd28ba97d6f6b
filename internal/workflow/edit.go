package workflow

import (
	"context"
	"sync"

	"go-catalog-admin/internal/metrics"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"

	"go.uber.org/zap"
)

// EditWorkflow drives the edit drawer. The product existed before the drawer
// opened, so a failed category write is reported but never rolled back.
type EditWorkflow struct {
	products ProductStore
	links    repository.AssociationWriter
	notifier notify.Notifier
	opts     Options
	log      *zap.Logger

	mu         sync.Mutex
	state      State
	drawerOpen bool
	productID  uint
	selection  *Selection
}

func NewEditWorkflow(products ProductStore, links repository.AssociationWriter, notifier notify.Notifier, opts Options) *EditWorkflow {
	opts = opts.withDefaults()
	return &EditWorkflow{
		products:  products,
		links:     links,
		notifier:  notifier,
		opts:      opts,
		log:       opts.Logger.Named("edit_workflow"),
		state:     StateIdle,
		selection: NewSelection(),
	}
}

// Load opens the drawer on a stored product and seeds the selection with its
// current categories.
func (w *EditWorkflow) Load(p *model.Product) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.productID = p.ID
	w.selection = NewSelection(p.CategoryIDs()...)
	w.drawerOpen = true
}

func (w *EditWorkflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drawerOpen = false
}

func (w *EditWorkflow) SelectCategories(ids []uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.Set(ids)
}

func (w *EditWorkflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *EditWorkflow) SelectedIDs() []uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection.IDs()
}

func (w *EditWorkflow) Submit(ctx context.Context, draft *ProductDraft) (*Outcome, error) {
	w.mu.Lock()
	if w.state.inFlight() {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if draft.ID == nil && w.productID != 0 {
		id := w.productID
		draft.ID = &id
	}
	if err := Validate(draft, w.selection, repository.WriteEdit); err != nil {
		w.state = StateIdle
		out := w.outcomeLocked(nil, notify.Notification{})
		w.mu.Unlock()
		return out, err
	}
	categoryIDs := w.selection.IDs()
	w.state = StateSubmitting
	w.mu.Unlock()

	product := &model.Product{}
	draft.apply(product)
	product.UpdatedBy = w.opts.Actor

	if err := w.products.Update(ctx, product); err != nil {
		w.log.Warn("product update failed", zap.Uint("product_id", product.ID), zap.Error(err))
		n := notification(notify.Error, notify.ActionProductUpdateFailed,
			"Could not update product", err.Error(), product.ID, w.opts.Actor)
		return w.finish(ctx, StateIdle, nil, false, "update_failed", n), &UpdateError{ProductID: product.ID, Err: err}
	}

	w.setState(StateProductUpdated)

	if err := w.links.Replace(ctx, product.ID, categoryIDs, repository.WriteEdit); err != nil {
		w.log.Warn("category replace failed after update",
			zap.Uint("product_id", product.ID),
			zap.Uints("category_ids", categoryIDs),
			zap.Error(err),
		)
		n := notification(notify.Error, notify.ActionProductUpdateFailed,
			"Product saved but categories were not updated", err.Error(), product.ID, w.opts.Actor)
		out := w.finish(ctx, StateIdle, product, true, "associations_failed", n)
		return out, &AssociationWriteError{ProductID: product.ID, Err: err}
	}

	w.log.Info("product updated",
		zap.Uint("product_id", product.ID),
		zap.Uints("category_ids", categoryIDs),
		zap.String("actor", w.opts.Actor),
	)
	n := notification(notify.Success, notify.ActionProductUpdated,
		"Product updated", product.Name, product.ID, w.opts.Actor)
	out := w.finish(ctx, StateAssociationsReplaced, product, true, "success", n)
	out.CategoryIDs = categoryIDs
	return out, nil
}

// finish records the end of a submission. Only a fully successful edit closes
// the drawer.
func (w *EditWorkflow) finish(ctx context.Context, state State, product *model.Product, terminal bool, outcome string, n notify.Notification) *Outcome {
	w.mu.Lock()
	w.state = state
	if state == StateAssociationsReplaced {
		w.drawerOpen = false
	}
	if terminal {
		w.selection.Clear()
	}
	out := w.outcomeLocked(product, n)
	w.mu.Unlock()

	metrics.RecordWorkflow("edit", outcome)
	if w.notifier != nil {
		w.notifier.Notify(ctx, n)
	}
	return out
}

func (w *EditWorkflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *EditWorkflow) outcomeLocked(product *model.Product, n notify.Notification) *Outcome {
	return &Outcome{
		State:        w.state,
		Product:      product,
		CategoryIDs:  w.selection.IDs(),
		DrawerOpen:   w.drawerOpen,
		Notification: n,
	}
}

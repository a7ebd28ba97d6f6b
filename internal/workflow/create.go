package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-catalog-admin/internal/metrics"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"

	"go.uber.org/zap"
)

// CreateWorkflow drives the create drawer: insert the product, link its
// categories, and delete the product again if linking fails.
type CreateWorkflow struct {
	products ProductStore
	links    repository.AssociationWriter
	notifier notify.Notifier
	opts     Options
	log      *zap.Logger

	mu             sync.Mutex
	state          State
	drawerOpen     bool
	closedInFlight bool
	selection      *Selection
}

func NewCreateWorkflow(products ProductStore, links repository.AssociationWriter, notifier notify.Notifier, opts Options) *CreateWorkflow {
	opts = opts.withDefaults()
	return &CreateWorkflow{
		products:  products,
		links:     links,
		notifier:  notifier,
		opts:      opts,
		log:       opts.Logger.Named("create_workflow"),
		state:     StateIdle,
		selection: NewSelection(),
	}
}

func (w *CreateWorkflow) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drawerOpen = true
}

// Close hides the drawer. A submission still in flight keeps running, but
// its completion will not reopen the drawer.
func (w *CreateWorkflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drawerOpen = false
	if w.state.inFlight() {
		w.closedInFlight = true
	}
}

func (w *CreateWorkflow) SelectCategories(ids []uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.Set(ids)
}

func (w *CreateWorkflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *CreateWorkflow) DrawerOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawerOpen
}

func (w *CreateWorkflow) SelectedIDs() []uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection.IDs()
}

// Submit runs one create submission. A validation failure returns a
// *ValidationError and leaves the workflow Idle without touching storage.
func (w *CreateWorkflow) Submit(ctx context.Context, draft *ProductDraft) (*Outcome, error) {
	w.mu.Lock()
	if w.state.inFlight() {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if err := Validate(draft, w.selection, repository.WriteCreate); err != nil {
		w.state = StateIdle
		out := w.outcomeLocked(nil, notify.Notification{})
		w.mu.Unlock()
		return out, err
	}
	categoryIDs := w.selection.IDs()
	w.state = StateSubmitting
	w.closedInFlight = false
	w.mu.Unlock()

	product := &model.Product{}
	draft.apply(product)
	product.ID = 0
	product.CreatedBy = w.opts.Actor
	product.UpdatedBy = w.opts.Actor

	if err := w.products.Create(ctx, product); err != nil {
		w.log.Warn("product insert failed", zap.String("name", product.Name), zap.Error(err))
		n := notification(notify.Error, notify.ActionProductCreateFailed,
			"Could not create product", err.Error(), 0, w.opts.Actor)
		return w.finish(ctx, StateIdle, nil, false, "create_failed", n), &CreateError{Err: err}
	}

	w.setState(StateProductCreated)

	if err := w.links.Replace(ctx, product.ID, categoryIDs, repository.WriteCreate); err != nil {
		return w.rollback(ctx, product, categoryIDs, err)
	}

	w.log.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.Uints("category_ids", categoryIDs),
		zap.String("actor", w.opts.Actor),
	)
	n := notification(notify.Success, notify.ActionProductCreated,
		"Product created", product.Name, product.ID, w.opts.Actor)
	out := w.finish(ctx, StateAssociationsWritten, product, true, "success", n)
	out.CategoryIDs = categoryIDs
	return out, nil
}

func (w *CreateWorkflow) rollback(ctx context.Context, product *model.Product, categoryIDs []uint, cause error) (*Outcome, error) {
	w.setState(StateRollingBack)
	w.log.Warn("category link failed, rolling back product",
		zap.Uint("product_id", product.ID),
		zap.Uints("category_ids", categoryIDs),
		zap.Error(cause),
	)

	// the rollback must outlive a cancelled request
	deleteErr := w.deleteWithRetry(context.WithoutCancel(ctx), product.ID)

	assocErr := &AssociationWriteError{ProductID: product.ID, RolledBack: deleteErr == nil, Err: cause}
	var err error = assocErr
	outcome := "rolled_back"
	if deleteErr != nil {
		cde := &CompensatingDeleteError{ProductID: product.ID, Attempts: w.opts.RollbackAttempts, Err: deleteErr}
		w.log.Error("compensating delete failed, product left without categories",
			zap.Uint("product_id", product.ID),
			zap.Int("attempts", cde.Attempts),
			zap.Error(deleteErr),
		)
		metrics.RecordCompensatingDeleteFailure()
		err = errors.Join(assocErr, cde)
		outcome = "rollback_failed"
	}

	n := notification(notify.Error, notify.ActionProductCreateFailed,
		"Could not save product categories", cause.Error(), product.ID, w.opts.Actor)
	return w.finish(ctx, StateIdle, nil, true, outcome, n), err
}

func (w *CreateWorkflow) deleteWithRetry(ctx context.Context, id uint) error {
	var err error
	for attempt := 1; attempt <= w.opts.RollbackAttempts; attempt++ {
		err = w.products.Delete(ctx, id)
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		w.log.Warn("compensating delete attempt failed",
			zap.Uint("product_id", id), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < w.opts.RollbackAttempts && w.opts.RollbackBackoff > 0 {
			time.Sleep(w.opts.RollbackBackoff * time.Duration(attempt))
		}
	}
	return err
}

// finish records the end of a submission. Terminal transitions clear the
// selection; a rollback reopens the drawer unless the operator closed it
// while the submission was running.
func (w *CreateWorkflow) finish(ctx context.Context, state State, product *model.Product, terminal bool, outcome string, n notify.Notification) *Outcome {
	w.mu.Lock()
	w.state = state
	switch {
	case state == StateAssociationsWritten:
		w.drawerOpen = false
	case terminal && !w.closedInFlight:
		w.drawerOpen = true
	}
	if terminal {
		w.selection.Clear()
	}
	out := w.outcomeLocked(product, n)
	w.mu.Unlock()

	metrics.RecordWorkflow("create", outcome)
	if w.notifier != nil {
		w.notifier.Notify(ctx, n)
	}
	return out
}

func (w *CreateWorkflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *CreateWorkflow) outcomeLocked(product *model.Product, n notify.Notification) *Outcome {
	return &Outcome{
		State:        w.state,
		Product:      product,
		CategoryIDs:  w.selection.IDs(),
		DrawerOpen:   w.drawerOpen,
		Notification: n,
	}
}

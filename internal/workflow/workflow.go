package workflow

import (
	"context"
	"time"

	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"

	"go.uber.org/zap"
)

// State is a step of a create or edit submission.
type State string

const (
	StateIdle                 State = "idle"
	StateSubmitting           State = "submitting"
	StateProductCreated       State = "product_created"
	StateAssociationsWritten  State = "associations_written"
	StateRollingBack          State = "rolling_back"
	StateProductUpdated       State = "product_updated"
	StateAssociationsReplaced State = "associations_replaced"
)

// inFlight reports whether a submission currently owns the workflow.
func (s State) inFlight() bool {
	switch s {
	case StateSubmitting, StateProductCreated, StateRollingBack, StateProductUpdated:
		return true
	}
	return false
}

// ProductStore is the product persistence a workflow drives.
type ProductStore interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
}

// Outcome is the result of one submission as the drawer sees it.
type Outcome struct {
	State        State               `json:"state"`
	Product      *model.Product      `json:"product,omitempty"`
	CategoryIDs  []uint              `json:"categoryIds"`
	DrawerOpen   bool                `json:"drawerOpen"`
	Notification notify.Notification `json:"notification"`
}

type Options struct {
	// Actor is recorded in audit columns and notifications.
	Actor            string
	RollbackAttempts int
	RollbackBackoff  time.Duration
	Logger           *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.RollbackAttempts < 1 {
		o.RollbackAttempts = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func notification(typ notify.Type, action, message, description string, productID uint, actor string) notify.Notification {
	return notify.Notification{
		Type:        typ,
		Message:     message,
		Description: description,
		Action:      action,
		ProductID:   productID,
		Actor:       actor,
		Time:        time.Now().UTC(),
	}
}

package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	Success Type = "success"
	Error   Type = "error"
)

// Actions carried by catalog notifications.
const (
	ActionProductCreated      = "product_created"
	ActionProductCreateFailed = "product_create_failed"
	ActionProductUpdated      = "product_updated"
	ActionProductUpdateFailed = "product_update_failed"
	ActionProductDeleted      = "product_deleted"
	ActionStockUpdated        = "stock_updated"
)

// Notification is what the admin front end shows as a toast.
type Notification struct {
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action"`
	ProductID   uint      `json:"productId,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	Time        time.Time `json:"time"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Multi delivers every notification to each of its notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now().UTC()
	}
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier writes notifications to the logger; errors at warn level.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.Named("notify")}
}

func (l *logNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("action", n.Action),
		zap.String("description", n.Description),
		zap.Uint("product_id", n.ProductID),
		zap.String("actor", n.Actor),
	}
	if n.Type == Error {
		l.log.Warn(n.Message, fields...)
		return
	}
	l.log.Info(n.Message, fields...)
}

// Recorder keeps every notification it receives. Useful as a test double.
type Recorder struct {
	Notifications []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.Notifications = append(r.Notifications, n)
}

func (r *Recorder) Last() (Notification, bool) {
	if len(r.Notifications) == 0 {
		return Notification{}, false
	}
	return r.Notifications[len(r.Notifications)-1], true
}

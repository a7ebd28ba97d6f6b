package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go-catalog-admin/config"
	"go-catalog-admin/internal/notify"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CatalogEvent is the envelope written to the catalog topic.
type CatalogEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   notify.Notification `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards catalog notifications to Kafka. It implements
// notify.Notifier.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *Publisher {
	logger = logger.Named("kafka")
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to publish catalog events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	logger.Info("Kafka publisher initialized", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return &Publisher{writer: w, logger: logger}
}

func newPublisherWithWriter(w messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Notify(ctx context.Context, n notify.Notification) {
	event := CatalogEvent{
		EventID:   uuid.NewString(),
		EventType: n.Action,
		Payload:   n,
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal catalog event", zap.Error(err))
		return
	}

	// events of one product stay ordered on one partition
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(n.ProductID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Error("Failed to publish catalog event",
			zap.String("event_type", event.EventType),
			zap.Uint("product_id", n.ProductID),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

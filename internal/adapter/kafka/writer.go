package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/risk-zone-service/internal/config"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is satisfied by *kafkago.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes zone risk notifications to the municipality topic.
// It implements analysis.Notifier.
type Notifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaNotifyTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify serializes and publishes a single zone notification. Messages are
// keyed by zone ID so updates for one zone stay ordered on a partition.
func (n *Notifier) Notify(ctx context.Context, notification domain.ZoneNotification) error {
	msg, err := serializeToMessage(notification)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish zone notification: %w", err)
	}
	n.logger.Info("zone notification published",
		"zone_id", notification.ZoneID,
		"level", notification.Level,
	)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a ZoneNotification into a Kafka message.
func serializeToMessage(notification domain.ZoneNotification) (kafkago.Message, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize zone notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(notification.ZoneID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "level", Value: []byte(notification.Level)},
			{Key: "notified_at", Value: []byte(notification.NotifiedAt.Format(time.RFC3339))},
		},
	}, nil
}

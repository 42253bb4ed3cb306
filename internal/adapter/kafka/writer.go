package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/delivery-radius-service/internal/config"
	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

// Writer produces completed queries to a Kafka topic.
// It implements session.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one completed query, keyed by query ID.
func (w *Writer) Publish(ctx context.Context, q domain.CompletedQuery) error {
	msg, err := serializeToMessage(q)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write completed query: %w", err)
	}
	w.logger.Debug("completed query published", "query_id", q.QueryID, "rows", len(q.Rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CompletedQuery into a Kafka message.
func serializeToMessage(q domain.CompletedQuery) (kafkago.Message, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize completed query: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(q.QueryID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_code", Value: []byte(q.Params.SourceCode)},
			{Key: "completed_at", Value: []byte(q.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}

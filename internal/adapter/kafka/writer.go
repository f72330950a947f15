// Package kafka publishes market quotes and pest detections to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/agri-assist-service/internal/config"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

// Event types carried in the event_type header.
const (
	EventMarketQuote   = "market_quote"
	EventPestDetection = "pest_detection"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces domain records to a Kafka topic.
// It implements pipeline.QuoteLoader and service.DetectionPublisher.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// PublishQuotes serializes and publishes a batch of quotes in a single
// WriteMessages call. Quotes are keyed by ID.
func (w *Writer) PublishQuotes(ctx context.Context, quotes []domain.MarketPriceQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	now := domain.Now()
	msgs := make([]kafkago.Message, len(quotes))
	for i := range quotes {
		msg, err := serializeToMessage(quotes[i].ID, EventMarketQuote, quotes[i], now)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d quotes: %w", len(msgs), err)
	}
	w.metrics.EventsPublished.WithLabelValues(EventMarketQuote).Add(float64(len(msgs)))
	return nil
}

// PublishDetection publishes one completed pest detection.
func (w *Writer) PublishDetection(ctx context.Context, res domain.PestDetectionResult) error {
	msg, err := serializeToMessage(res.ID, EventPestDetection, res, domain.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish detection %s: %w", res.ID, err)
	}
	w.metrics.EventsPublished.WithLabelValues(EventPestDetection).Inc()
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(key, eventType string, record any, producedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s: %w", eventType, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "produced_at", Value: []byte(producedAt.Format(time.RFC3339))},
		},
	}, nil
}

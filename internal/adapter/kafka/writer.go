package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/config"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes admin submissions to the submissions topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured submissions topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSubmissionsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes submissions in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, subs ...domain.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(subs))
	for i := range subs {
		msg, err := serializeToMessage(subs[i], time.Now())
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish submissions: %w", err)
	}
	w.logger.Info("submissions published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage encodes a Submission into a Kafka message.
func serializeToMessage(s domain.Submission, submittedAt time.Time) (kafkago.Message, error) {
	out, err := domain.EncodeSubmission(s)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   out.Key,
		Value: out.Value,
		Headers: []kafkago.Header{
			{Key: "dataset", Value: []byte(out.Headers["dataset"])},
			{Key: "submitted_at", Value: []byte(submittedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes one message per artifact row to the forecast topic.
// It implements pipeline.ArtifactSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured forecast topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaForecastTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Deliver publishes every row of the artifact in a single WriteMessages call.
// Rows are keyed by state so a compacted topic keeps the latest forecast.
func (w *Writer) Deliver(ctx context.Context, runID string, artifact domain.Artifact) error {
	if len(artifact.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(artifact.Rows))
	for i := range artifact.Rows {
		msg, err := serializeToMessage(runID, artifact.GeneratedAt, artifact.Rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish forecasts: %w", err)
	}
	w.logger.Debug("forecasts published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StateRow into a Kafka message.
func serializeToMessage(runID string, generatedAt time.Time, row domain.StateRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast for %s: %w", row.State, err)
	}
	return kafkago.Message{
		Key:   []byte(row.State),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

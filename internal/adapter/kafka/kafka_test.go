package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := domain.StateRow{
		State:                  "Texas",
		MortalityCurrent:       50,
		MortalityNext:          domain.Present(50),
		HospitalizationCurrent: 20,
		HospitalizationNext:    domain.Missing,
		MortalityChange:        domain.Present(0),
		PremiumIncreaseRate:    domain.Present(0.05),
	}

	msg, err := serializeToMessage("run-123", now, row)
	require.NoError(t, err)

	assert.Equal(t, []byte("Texas"), msg.Key)
	assert.JSONEq(t, `{
		"State": "Texas",
		"MortalityCountCurrentYear": 50,
		"MortalityCountNextYear": 50,
		"HospitalizationCountCurrentYear": 20,
		"HospitalizationCountNextYear": null,
		"MortalityChange": 0,
		"HospitalizationChange": null,
		"PremiumAmountIncreaseRate": 0.05
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-123"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-03-01T12:00:00Z"), msg.Headers[1].Value)
}

func TestWriter_DeliverEmptyArtifactIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaForecastTopic: "forecasts"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	require.NoError(t, w.Deliver(context.Background(), "run", domain.Artifact{}))
}

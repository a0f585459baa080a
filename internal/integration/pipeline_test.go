//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/blob"
	"github.com/couchcryptid/chronic-disease-etl/internal/adapter/kafka"
	"github.com/couchcryptid/chronic-disease-etl/internal/arima"
	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	"github.com/couchcryptid/chronic-disease-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rawBlob      = "chronic-disease-indicators.csv"
	artifactBlob = "ChronicDiseaseForecast.csv"
)

func TestForecastWriterPublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	const topic = "forecast-writer-test"
	createTopic(t, broker, topic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaForecastTopic: topic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	artifact := domain.Artifact{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Rows: []domain.StateRow{
			{State: "Ohio", MortalityCurrent: 80, MortalityNext: domain.Missing, HospitalizationCurrent: 30,
				HospitalizationNext: domain.Present(33), HospitalizationChange: domain.Present(0.1)},
			{State: "Texas", MortalityCurrent: 50, MortalityNext: domain.Present(50), HospitalizationCurrent: 20,
				HospitalizationNext: domain.Present(20), MortalityChange: domain.Present(0),
				HospitalizationChange: domain.Present(0), PremiumIncreaseRate: domain.Present(0.05)},
		},
	}
	require.NoError(t, writer.Deliver(ctx, "run-42", artifact))

	msgs := readForecasts(ctx, t, broker, topic, 2)
	assert.Equal(t, "Ohio", msgs[0].Key)
	assert.Equal(t, "Texas", msgs[1].Key)
	for i, m := range msgs {
		assert.Equal(t, "run-42", m.Headers["run_id"])
		assert.Equal(t, "2026-03-01T12:00:00Z", m.Headers["generated_at"])
		assert.Equal(t, artifact.Rows[i], m.Row)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	const topic = "chronic-disease-forecast"
	createTopic(t, broker, topic)

	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join("..", "domain", "testdata", "raw_sample.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rawBlob, raw))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaForecastTopic: topic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	artifacts := blob.NewArtifactStore(store, artifactBlob)
	p := pipeline.New(
		blob.NewRowStager(nil, store, rawBlob, discardLogger()),
		arima.Model{},
		[]pipeline.Sink{
			{Name: "blob", ArtifactSink: artifacts},
			{Name: "kafka", ArtifactSink: writer},
		},
		discardLogger(),
		observability.NewMetricsForTesting(),
		pipeline.Options{ExcludedYear: 2001, Workers: 4},
	)

	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, p.CheckReadiness(ctx))

	stored, err := artifacts.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, res.Artifact.Rows, stored)
	assert.Equal(t, "California", stored[0].State)
	assert.Equal(t, "Texas", stored[1].State)

	msgs := readForecasts(ctx, t, broker, topic, 2)
	for i, m := range msgs {
		assert.Equal(t, stored[i].State, m.Key)
		assert.Equal(t, res.RunID, m.Headers["run_id"])
		assert.Equal(t, stored[i], m.Row)
	}

	texas, err := artifacts.Get(ctx, "Texas")
	require.NoError(t, err)
	rate, ok := texas.PremiumIncreaseRate.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.05, rate, 1e-9)
}

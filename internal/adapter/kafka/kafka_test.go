package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/delivery-radius-service/internal/config"
	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)
	q := domain.CompletedQuery{
		QueryID:   "q-1",
		SessionID: "s-1",
		Params:    domain.QueryParams{SourceCode: "98101", RadiusMiles: 15, DriveTimeThresholdMinutes: 25},
		Summary:   domain.Summary{Total: 2, Included: 1, Excluded: 1},
		Rows: []domain.ExportRow{
			{SourceCode: "98101", CandidateCode: "98122", Distance: "1.50", Status: "In — distance confirmed", Included: "Yes"},
		},
		CompletedAt: now,
	}

	msg, err := serializeToMessage(q)
	require.NoError(t, err)

	assert.Equal(t, []byte("q-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"candidate_code":"98122"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "source_code", msg.Headers[0].Key)
	assert.Equal(t, []byte("98101"), msg.Headers[0].Value)
	assert.Equal(t, "completed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.CompletedQuery
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, q.Summary, decoded.Summary)
	assert.Empty(t, decoded.Errors)
}

func TestNewWriter_UsesResultsTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker:9092"}, KafkaResultsTopic: "results"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, "results", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
	assert.IsType(t, &kafkago.Hash{}, w.writer.Balancer)
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testNotification() domain.ZoneNotification {
	return domain.ZoneNotification{
		ZoneID:              23,
		Level:               domain.LevelCritical,
		Coordinates:         domain.Coordinates{Lat: -25.4284, Lon: -49.2733},
		TotalProperties:     10,
		EstimatedPopulation: 35,
		ROIFormatted:        "1100%",
		NotifiedAt:          time.Date(2025, 10, 4, 14, 30, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	n := testNotification()

	msg, err := serializeToMessage(n)
	require.NoError(t, err)

	assert.Equal(t, []byte("23"), msg.Key)
	assert.Contains(t, string(msg.Value), `"level":"CRÍTICO"`)
	assert.Contains(t, string(msg.Value), `"roi_formatado":"1100%"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "level", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.LevelCritical), msg.Headers[0].Value)
	assert.Equal(t, "notified_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-10-04T14:30:00Z"), msg.Headers[1].Value)

	var decoded domain.ZoneNotification
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, n, decoded)
}

func TestNotifier_Notify(t *testing.T) {
	fw := &fakeWriter{}
	n := &Notifier{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, n.Notify(context.Background(), testNotification()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("23"), fw.msgs[0].Key)

	require.NoError(t, n.Close())
	assert.True(t, fw.closed)
}

func TestNotifier_NotifyError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	n := &Notifier{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := n.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

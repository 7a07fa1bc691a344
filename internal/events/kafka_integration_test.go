//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/testsupport"
)

func TestKafkaPublisherDeliversRecordChanged(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers := testsupport.StartKafka(ctx, t)
	pub := NewKafkaPublisher(brokers, 10*time.Second)
	t.Cleanup(func() { _ = pub.Close() })

	evt := RecordChanged{
		Type:       TypeCreated,
		Collection: "Movements",
		RecordID:   7,
		Subject:    "auth0|abc",
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	// The first write may race topic auto-creation.
	require.Eventually(t, func() bool {
		return pub.Publish(ctx, TopicMovements, "7", evt) == nil
	}, time.Minute, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     TopicMovements,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "7", string(msg.Key))

	var got RecordChanged
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, evt.RecordID, got.RecordID)
	require.Equal(t, evt.Subject, got.Subject)
	require.Equal(t, TypeCreated, got.Type)
}

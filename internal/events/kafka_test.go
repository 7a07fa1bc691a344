package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, time.Second)
	err := p.Publish(context.Background(), TopicMovements, "1", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicMovements)
	assert.Empty(t, p.writers, "no writer is created before encoding succeeds")
}

func TestWriterPerTopicIsReused(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, time.Second)
	w1 := p.writerForTopic(TopicMovements)
	w2 := p.writerForTopic(TopicMovements)
	w3 := p.writerForTopic(TopicExercises)

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, TopicExercises, w3.Topic)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), TopicUsers, "1", RecordChanged{Type: TypeCreated}))
	assert.NoError(t, p.Close())
}

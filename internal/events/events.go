// Package events defines the lifecycle messages published after writes and
// the publishers that deliver them.
package events

import (
	"context"
	"time"
)

// Topics.
const (
	TopicMovements     = "rest-between-sets.movements"
	TopicExercises     = "rest-between-sets.exercises"
	TopicUsers         = "rest-between-sets.users"
	TopicRelationships = "rest-between-sets.relationships"
)

// Event types.
const (
	TypeCreated  = "created"
	TypeUpdated  = "updated"
	TypeDeleted  = "deleted"
	TypeLinked   = "linked"
	TypeUnlinked = "unlinked"
)

// RecordChanged is emitted when a movement, exercise or user is written.
type RecordChanged struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	RecordID   int64     `json:"record_id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RelationshipChanged is emitted when a movement and exercise are linked or unlinked.
type RelationshipChanged struct {
	Type       string    `json:"type"`
	MovementID int64     `json:"movement_id"`
	ExerciseID int64     `json:"exercise_id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers a payload to a topic. Key selects the partition.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }

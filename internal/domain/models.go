package domain

import (
	"time"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// Movement is a movement pattern (squat, hinge, ...) linked to exercises.
type Movement struct {
	ID           int64     `json:"-"`
	Name         string    `json:"movement_name"`
	CoachingTips string    `json:"coaching_tips"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	Exercises    []int64   `json:"exercises"`
}

// Exercise is a concrete exercise linked back to movements.
type Exercise struct {
	ID             int64     `json:"-"`
	Name           string    `json:"exercise_name"`
	VideoLinks     []string  `json:"video_links"`
	ReferenceLinks []string  `json:"reference_links"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	Movements      []int64   `json:"movements"`
}

// User is created the first time a subject signs in through the browser.
type User struct {
	ID        int64     `json:"-"`
	Email     string    `json:"user_email"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementAttrs are the client-writable movement attributes.
type MovementAttrs struct {
	Name         *string
	CoachingTips *string
}

// ExerciseAttrs are the client-writable exercise attributes.
type ExerciseAttrs struct {
	Name           *string
	VideoLinks     *[]string
	ReferenceLinks *[]string
}

// Page is one owner-scoped listing page. Total counts every record the
// requester owns, not only those on the page.
type Page[T any] struct {
	Total      int
	Items      []T
	NextCursor string
}

// linked is implemented by records that carry a link list into a sibling collection.
type linked interface {
	collection() store.Collection
	owner() string
	links() []int64
	setLinks([]int64)
	setID(int64)
	recordID() int64
}

func (m *Movement) collection() store.Collection { return store.Movements }
func (m *Movement) owner() string { return m.CreatedBy }
func (m *Movement) links() []int64 { return m.Exercises }
func (m *Movement) setLinks(ids []int64) { m.Exercises = ids }
func (m *Movement) setID(id int64) { m.ID = id }
func (m *Movement) recordID() int64 { return m.ID }

func (e *Exercise) collection() store.Collection { return store.Exercises }
func (e *Exercise) owner() string { return e.CreatedBy }
func (e *Exercise) links() []int64 { return e.Movements }
func (e *Exercise) setLinks(ids []int64) { e.Movements = ids }
func (e *Exercise) setID(id int64) { e.ID = id }
func (e *Exercise) recordID() int64 { return e.ID }

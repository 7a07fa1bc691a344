// Package domain holds the movement and exercise business rules: ownership,
// owner-scoped pagination and the bidirectional links between the two.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kelleyneubauer/rest-between-sets/internal/events"
	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

var (
	// ErrNotFound indicates a missing record or link.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthorized indicates the requester does not own a record involved.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrBadRequest indicates invalid input.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidCursor indicates a pagination token the store rejected.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Service contains business logic.
type Service struct {
	store  store.Gateway
	events events.Publisher
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(gw store.Gateway, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{store: gw, events: publisher, now: time.Now}
}

// translate maps gateway failures onto domain errors, keeping the cause.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch store.KindOf(err) {
	case store.KindNotFound, store.KindInvalidKey:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case store.KindInvalidCursor:
		return fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	default:
		return err
	}
}

func load[T any, P interface {
	*T
	linked
}](ctx context.Context, gw store.Gateway, id int64) (P, error) {
	rec := P(new(T))
	doc, err := gw.Get(ctx, rec.collection(), id)
	if err != nil {
		return nil, translate(err)
	}
	if err := decode(doc, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func decode(doc store.Document, rec linked) error {
	if err := json.Unmarshal(doc.Data, rec); err != nil {
		return fmt.Errorf("decode %s/%d: %w", rec.collection(), doc.ID, err)
	}
	rec.setID(doc.ID)
	if rec.links() == nil {
		rec.setLinks([]int64{})
	}
	return nil
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func (s *Service) publish(ctx context.Context, topic, key string, payload any) {
	if err := s.events.Publish(ctx, topic, key, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("publish event")
	}
}

func (s *Service) recordChanged(ctx context.Context, typ string, c store.Collection, id int64, subject string) {
	topic := events.TopicMovements
	switch c {
	case store.Exercises:
		topic = events.TopicExercises
	case store.Users:
		topic = events.TopicUsers
	}
	s.publish(ctx, topic, strconv.FormatInt(id, 10), events.RecordChanged{
		Type:       typ,
		Collection: string(c),
		RecordID:   id,
		Subject:    subject,
		OccurredAt: s.now().UTC(),
	})
}

func required(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fmt.Errorf("%w: %s is required", ErrBadRequest, field)
	}
	return nil
}

// CreateMovement stores a new movement owned by subject with no links.
func (s *Service) CreateMovement(ctx context.Context, subject string, attrs MovementAttrs) (Movement, error) {
	if err := required("movement_name", attrs.Name); err != nil {
		return Movement{}, err
	}
	m := Movement{
		Name:      *attrs.Name,
		CreatedBy: subject,
		CreatedAt: s.now().UTC(),
		Exercises: []int64{},
	}
	if attrs.CoachingTips != nil {
		m.CoachingTips = *attrs.CoachingTips
	}
	data, err := encode(m)
	if err != nil {
		return Movement{}, err
	}
	id, err := s.store.Create(ctx, store.Movements, data)
	if err != nil {
		return Movement{}, err
	}
	m.ID = id
	s.recordChanged(ctx, events.TypeCreated, store.Movements, id, subject)
	return m, nil
}

// GetMovement returns a movement the subject owns.
func (s *Service) GetMovement(ctx context.Context, subject string, id int64) (Movement, error) {
	m, err := load[Movement](ctx, s.store, id)
	if err != nil {
		return Movement{}, err
	}
	if m.CreatedBy != subject {
		return Movement{}, ErrNotAuthorized
	}
	return *m, nil
}

// ReplaceMovement overwrites every writable attribute.
func (s *Service) ReplaceMovement(ctx context.Context, subject string, id int64, attrs MovementAttrs) (Movement, error) {
	if err := required("movement_name", attrs.Name); err != nil {
		return Movement{}, err
	}
	if attrs.CoachingTips == nil {
		return Movement{}, fmt.Errorf("%w: coaching_tips is required", ErrBadRequest)
	}
	return s.PatchMovement(ctx, subject, id, attrs)
}

// PatchMovement overwrites the supplied attributes only.
func (s *Service) PatchMovement(ctx context.Context, subject string, id int64, attrs MovementAttrs) (Movement, error) {
	if attrs.Name != nil {
		if err := required("movement_name", attrs.Name); err != nil {
			return Movement{}, err
		}
	}
	m, err := load[Movement](ctx, s.store, id)
	if err != nil {
		return Movement{}, err
	}
	if m.CreatedBy != subject {
		return Movement{}, ErrNotAuthorized
	}
	if attrs.Name != nil {
		m.Name = *attrs.Name
	}
	if attrs.CoachingTips != nil {
		m.CoachingTips = *attrs.CoachingTips
	}
	data, err := encode(m)
	if err != nil {
		return Movement{}, err
	}
	if err := s.store.Update(ctx, store.Movements, id, data); err != nil {
		return Movement{}, translate(err)
	}
	s.recordChanged(ctx, events.TypeUpdated, store.Movements, id, subject)
	return *m, nil
}

// CreateExercise stores a new exercise owned by subject with no links.
func (s *Service) CreateExercise(ctx context.Context, subject string, attrs ExerciseAttrs) (Exercise, error) {
	if err := required("exercise_name", attrs.Name); err != nil {
		return Exercise{}, err
	}
	e := Exercise{
		Name:           *attrs.Name,
		VideoLinks:     []string{},
		ReferenceLinks: []string{},
		CreatedBy:      subject,
		CreatedAt:      s.now().UTC(),
		Movements:      []int64{},
	}
	if attrs.VideoLinks != nil {
		e.VideoLinks = *attrs.VideoLinks
	}
	if attrs.ReferenceLinks != nil {
		e.ReferenceLinks = *attrs.ReferenceLinks
	}
	data, err := encode(e)
	if err != nil {
		return Exercise{}, err
	}
	id, err := s.store.Create(ctx, store.Exercises, data)
	if err != nil {
		return Exercise{}, err
	}
	e.ID = id
	s.recordChanged(ctx, events.TypeCreated, store.Exercises, id, subject)
	return e, nil
}

// GetExercise returns an exercise the subject owns.
func (s *Service) GetExercise(ctx context.Context, subject string, id int64) (Exercise, error) {
	e, err := load[Exercise](ctx, s.store, id)
	if err != nil {
		return Exercise{}, err
	}
	if e.CreatedBy != subject {
		return Exercise{}, ErrNotAuthorized
	}
	return *e, nil
}

// ReplaceExercise overwrites every writable attribute.
func (s *Service) ReplaceExercise(ctx context.Context, subject string, id int64, attrs ExerciseAttrs) (Exercise, error) {
	if err := required("exercise_name", attrs.Name); err != nil {
		return Exercise{}, err
	}
	if attrs.VideoLinks == nil || attrs.ReferenceLinks == nil {
		return Exercise{}, fmt.Errorf("%w: video_links and reference_links are required", ErrBadRequest)
	}
	return s.PatchExercise(ctx, subject, id, attrs)
}

// PatchExercise overwrites the supplied attributes only.
func (s *Service) PatchExercise(ctx context.Context, subject string, id int64, attrs ExerciseAttrs) (Exercise, error) {
	if attrs.Name != nil {
		if err := required("exercise_name", attrs.Name); err != nil {
			return Exercise{}, err
		}
	}
	e, err := load[Exercise](ctx, s.store, id)
	if err != nil {
		return Exercise{}, err
	}
	if e.CreatedBy != subject {
		return Exercise{}, ErrNotAuthorized
	}
	if attrs.Name != nil {
		e.Name = *attrs.Name
	}
	if attrs.VideoLinks != nil {
		e.VideoLinks = *attrs.VideoLinks
	}
	if attrs.ReferenceLinks != nil {
		e.ReferenceLinks = *attrs.ReferenceLinks
	}
	data, err := encode(e)
	if err != nil {
		return Exercise{}, err
	}
	if err := s.store.Update(ctx, store.Exercises, id, data); err != nil {
		return Exercise{}, translate(err)
	}
	s.recordChanged(ctx, events.TypeUpdated, store.Exercises, id, subject)
	return *e, nil
}

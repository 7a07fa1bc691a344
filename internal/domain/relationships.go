package domain

import (
	"context"
	"errors"
	"strconv"

	"github.com/kelleyneubauer/rest-between-sets/internal/events"
	"github.com/kelleyneubauer/rest-between-sets/internal/observability"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// LinkMovementExercise records the relationship on both records. Each side
// is appended to only when absent, so repeating the call changes nothing.
func (s *Service) LinkMovementExercise(ctx context.Context, subject string, movementID, exerciseID int64) (err error) {
	defer func() { observability.RecordRelationship("link", outcome(err)) }()

	m, e, err := s.loadPair(ctx, subject, movementID, exerciseID)
	if err != nil {
		return err
	}

	var muts []store.Mutation
	if !contains(m.Exercises, exerciseID) {
		m.Exercises = append(m.Exercises, exerciseID)
		mut, err := updateOf(m)
		if err != nil {
			return err
		}
		muts = append(muts, mut)
	}
	if !contains(e.Movements, movementID) {
		e.Movements = append(e.Movements, movementID)
		mut, err := updateOf(e)
		if err != nil {
			return err
		}
		muts = append(muts, mut)
	}
	if len(muts) == 0 {
		return nil
	}
	if err := s.store.Apply(ctx, muts); err != nil {
		return translate(err)
	}
	s.relationshipChanged(ctx, events.TypeLinked, subject, movementID, exerciseID)
	return nil
}

// UnlinkMovementExercise removes one occurrence of the relationship from each
// side. It fails with ErrNotFound unless both sides currently hold the link.
func (s *Service) UnlinkMovementExercise(ctx context.Context, subject string, movementID, exerciseID int64) (err error) {
	defer func() { observability.RecordRelationship("unlink", outcome(err)) }()

	m, e, err := s.loadPair(ctx, subject, movementID, exerciseID)
	if err != nil {
		return err
	}
	if !contains(m.Exercises, exerciseID) || !contains(e.Movements, movementID) {
		return ErrNotFound
	}
	m.Exercises = removeOne(m.Exercises, exerciseID)
	e.Movements = removeOne(e.Movements, movementID)

	mm, err := updateOf(m)
	if err != nil {
		return err
	}
	me, err := updateOf(e)
	if err != nil {
		return err
	}
	if err := s.store.Apply(ctx, []store.Mutation{mm, me}); err != nil {
		return translate(err)
	}
	s.relationshipChanged(ctx, events.TypeUnlinked, subject, movementID, exerciseID)
	return nil
}

// DeleteMovement removes the movement from every linked exercise, then deletes it.
func (s *Service) DeleteMovement(ctx context.Context, subject string, id int64) (err error) {
	defer func() { observability.RecordRelationship("cascade_delete", outcome(err)) }()

	m, err := load[Movement](ctx, s.store, id)
	if err != nil {
		return err
	}
	return s.cascadeDelete(ctx, subject, m, func() linked { return new(Exercise) })
}

// DeleteExercise removes the exercise from every linked movement, then deletes it.
func (s *Service) DeleteExercise(ctx context.Context, subject string, id int64) (err error) {
	defer func() { observability.RecordRelationship("cascade_delete", outcome(err)) }()

	e, err := load[Exercise](ctx, s.store, id)
	if err != nil {
		return err
	}
	return s.cascadeDelete(ctx, subject, e, func() linked { return new(Movement) })
}

// cascadeDelete strips target's id from each counterpart once per listed
// link and deletes target in the same batch, after the counterpart updates.
// Counterparts that no longer exist are skipped.
func (s *Service) cascadeDelete(ctx context.Context, subject string, target linked, newSibling func() linked) error {
	if target.owner() != subject {
		return ErrNotAuthorized
	}

	targetID := target.recordID()
	occurrences := make(map[int64]int)
	order := make([]int64, 0, len(target.links()))
	for _, id := range target.links() {
		if occurrences[id] == 0 {
			order = append(order, id)
		}
		occurrences[id]++
	}

	muts := make([]store.Mutation, 0, len(order)+1)
	for _, siblingID := range order {
		sibling := newSibling()
		doc, err := s.store.Get(ctx, sibling.collection(), siblingID)
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidKey) {
			continue
		}
		if err != nil {
			return translate(err)
		}
		if err := decode(doc, sibling); err != nil {
			return err
		}
		ids := sibling.links()
		for i := 0; i < occurrences[siblingID]; i++ {
			ids = removeOne(ids, targetID)
		}
		sibling.setLinks(ids)
		mut, err := updateOf(sibling)
		if err != nil {
			return err
		}
		muts = append(muts, mut)
	}
	muts = append(muts, store.DeleteOf(target.collection(), targetID))

	if err := s.store.Apply(ctx, muts); err != nil {
		return translate(err)
	}
	s.recordChanged(ctx, events.TypeDeleted, target.collection(), targetID, subject)
	return nil
}

func (s *Service) loadPair(ctx context.Context, subject string, movementID, exerciseID int64) (*Movement, *Exercise, error) {
	m, err := load[Movement](ctx, s.store, movementID)
	if err != nil {
		return nil, nil, err
	}
	e, err := load[Exercise](ctx, s.store, exerciseID)
	if err != nil {
		return nil, nil, err
	}
	if m.CreatedBy != subject || e.CreatedBy != subject {
		return nil, nil, ErrNotAuthorized
	}
	return m, e, nil
}

func (s *Service) relationshipChanged(ctx context.Context, typ, subject string, movementID, exerciseID int64) {
	s.publish(ctx, events.TopicRelationships, strconv.FormatInt(movementID, 10), events.RelationshipChanged{
		Type:       typ,
		MovementID: movementID,
		ExerciseID: exerciseID,
		Subject:    subject,
		OccurredAt: s.now().UTC(),
	})
}

func updateOf(rec linked) (store.Mutation, error) {
	data, err := encode(rec)
	if err != nil {
		return store.Mutation{}, err
	}
	return store.UpdateOf(rec.collection(), rec.recordID(), data), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAuthorized):
		return "forbidden"
	default:
		return "error"
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeOne drops the first occurrence of id.
func removeOne(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	removed := false
	for _, v := range ids {
		if v == id && !removed {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}

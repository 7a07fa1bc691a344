package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

func movementIDs(ms []Movement) []int64 {
	out := make([]int64, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestListMovementsExpandsToFillPage(t *testing.T) {
	svc, gw, _ := newTestService(t)
	ctx := context.Background()
	// ids 1..13 alternate owners: alice holds the odd ones.
	for i := 1; i <= 13; i++ {
		owner := bob
		if i%2 == 1 {
			owner = alice
		}
		mustMovement(t, svc, owner, "m")
	}

	gw.lists = 0
	page, err := svc.ListMovements(ctx, alice, "")
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, []int64{1, 3, 5, 7, 9}, movementIDs(page.Items))
	require.NotEmpty(t, page.NextCursor)
	// one count listing plus limits 5,6,7,8,9
	assert.Equal(t, 6, gw.lists)

	next, err := svc.ListMovements(ctx, alice, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, 7, next.Total)
	assert.Equal(t, []int64{11, 13}, movementIDs(next.Items))
	assert.Empty(t, next.NextCursor)

	for _, m := range append(page.Items, next.Items...) {
		assert.Equal(t, alice, m.CreatedBy)
	}
}

func TestListMovementsFewerThanPageSize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		mustMovement(t, svc, bob, "b")
	}
	mustMovement(t, svc, alice, "a1")
	mustMovement(t, svc, bob, "b")
	mustMovement(t, svc, alice, "a2")

	page, err := svc.ListMovements(ctx, alice, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}

func TestListExercisesSinglePageWithoutExpansion(t *testing.T) {
	svc, gw, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		mustExercise(t, svc, alice, "e")
	}

	gw.lists = 0
	page, err := svc.ListExercises(ctx, alice, "")
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 5)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, 2, gw.lists)

	empty, err := svc.ListExercises(ctx, bob, "")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestListRejectsForeignCursor(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustMovement(t, svc, alice, "m")

	_, err := svc.ListMovements(context.Background(), alice, store.EncodeCursor(store.Exercises, 1))
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

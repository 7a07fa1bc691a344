// Package storetest holds the behavioural suite every store.Gateway backend
// runs against.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// Factory returns a fresh, empty gateway.
type Factory func(t *testing.T) store.Gateway

// Run executes the suite.
func Run(t *testing.T, newGateway Factory) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, newGateway(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newGateway(t)) })
	t.Run("ListPages", func(t *testing.T) { testListPages(t, newGateway(t)) })
	t.Run("ListAll", func(t *testing.T) { testListAll(t, newGateway(t)) })
	t.Run("ListBadCursor", func(t *testing.T) { testListBadCursor(t, newGateway(t)) })
	t.Run("UpdateDelete", func(t *testing.T) { testUpdateDelete(t, newGateway(t)) })
	t.Run("ApplyAtomic", func(t *testing.T) { testApplyAtomic(t, newGateway(t)) })
	t.Run("CollectionsIsolated", func(t *testing.T) { testCollectionsIsolated(t, newGateway(t)) })
}

func testCreateGet(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	first, err := gw.Create(ctx, store.Movements, []byte(`{"movement_name":"Squat"}`))
	require.NoError(t, err)
	second, err := gw.Create(ctx, store.Movements, []byte(`{"movement_name":"Hinge"}`))
	require.NoError(t, err)
	assert.Greater(t, first, int64(0))
	assert.Greater(t, second, first)

	doc, err := gw.Get(ctx, store.Movements, first)
	require.NoError(t, err)
	assert.Equal(t, first, doc.ID)
	assert.JSONEq(t, `{"movement_name":"Squat"}`, string(doc.Data))
}

func testGetMissing(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	_, err := gw.Get(ctx, store.Movements, 4242)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	_, err = gw.Get(ctx, store.Movements, 0)
	assert.True(t, errors.Is(err, store.ErrInvalidKey), "got %v", err)
}

func testListPages(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 7; i++ {
		id, err := gw.Create(ctx, store.Exercises, []byte(`{}`))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, err := gw.List(ctx, store.Exercises, store.ListOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, ids[:3], docIDs(page.Items))
	require.True(t, page.More())

	page, err = gw.List(ctx, store.Exercises, store.ListOptions{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, ids[3:6], docIDs(page.Items))
	require.True(t, page.More())

	page, err = gw.List(ctx, store.Exercises, store.ListOptions{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, ids[6:], docIDs(page.Items))
	assert.False(t, page.More())

	// Exactly filling the limit must not report a further page.
	page, err = gw.List(ctx, store.Exercises, store.ListOptions{Limit: 7})
	require.NoError(t, err)
	assert.Len(t, page.Items, 7)
	assert.False(t, page.More())
}

func testListAll(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := gw.Create(ctx, store.Movements, []byte(`{}`))
		require.NoError(t, err)
	}
	page, err := gw.List(ctx, store.Movements, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 12)
	assert.False(t, page.More())

	empty, err := gw.List(ctx, store.Users, store.ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.False(t, empty.More())
}

func testListBadCursor(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	_, err := gw.List(ctx, store.Movements, store.ListOptions{Limit: 5, Cursor: "%%%"})
	assert.True(t, errors.Is(err, store.ErrInvalidCursor), "got %v", err)

	foreign := store.EncodeCursor(store.Exercises, 3)
	_, err = gw.List(ctx, store.Movements, store.ListOptions{Limit: 5, Cursor: foreign})
	assert.True(t, errors.Is(err, store.ErrInvalidCursor), "got %v", err)
}

func testUpdateDelete(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	id, err := gw.Create(ctx, store.Movements, []byte(`{"movement_name":"Squat"}`))
	require.NoError(t, err)

	require.NoError(t, gw.Update(ctx, store.Movements, id, []byte(`{"movement_name":"Front Squat"}`)))
	doc, err := gw.Get(ctx, store.Movements, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"movement_name":"Front Squat"}`, string(doc.Data))

	require.NoError(t, gw.Delete(ctx, store.Movements, id))
	_, err = gw.Get(ctx, store.Movements, id)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	err = gw.Delete(ctx, store.Movements, id)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	err = gw.Update(ctx, store.Movements, id, []byte(`{}`))
	assert.True(t, errors.Is(err, store.ErrNotFound))

	next, err := gw.Create(ctx, store.Movements, []byte(`{}`))
	require.NoError(t, err)
	assert.Greater(t, next, id, "ids are never reused")
}

func testApplyAtomic(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	m, err := gw.Create(ctx, store.Movements, []byte(`{"exercises":[]}`))
	require.NoError(t, err)
	e, err := gw.Create(ctx, store.Exercises, []byte(`{"movements":[]}`))
	require.NoError(t, err)

	err = gw.Apply(ctx, []store.Mutation{
		store.UpdateOf(store.Movements, m, []byte(`{"exercises":[99]}`)),
		store.UpdateOf(store.Exercises, 999, []byte(`{}`)),
	})
	require.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	doc, err := gw.Get(ctx, store.Movements, m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exercises":[]}`, string(doc.Data), "failed batch must not write")

	err = gw.Apply(ctx, []store.Mutation{
		store.UpdateOf(store.Exercises, e, []byte(`{"movements":[]}`)),
		store.DeleteOf(store.Movements, m),
	})
	require.NoError(t, err)
	_, err = gw.Get(ctx, store.Movements, m)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func testCollectionsIsolated(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	m, err := gw.Create(ctx, store.Movements, []byte(`{"kind":"movement"}`))
	require.NoError(t, err)
	_, err = gw.Create(ctx, store.Exercises, []byte(`{"kind":"exercise"}`))
	require.NoError(t, err)

	page, err := gw.List(ctx, store.Movements, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, m, page.Items[0].ID)
	assert.JSONEq(t, `{"kind":"movement"}`, string(page.Items[0].Data))
}

func docIDs(docs []store.Document) []int64 {
	out := make([]int64, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/storetest"
)

func TestGateway(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway {
		s, err := Open(Config{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	first, err := s.Create(ctx, store.Movements, []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	second, err := s.Create(ctx, store.Movements, []byte(`{}`))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	doc, err := s.Get(ctx, store.Movements, first)
	require.NoError(t, err)
	assert.Equal(t, first, doc.ID)
}

func TestKeysSortNumerically(t *testing.T) {
	assert.Less(t, string(docKey(store.Movements, 9)), string(docKey(store.Movements, 10)))
	id, err := idFromKey(store.Movements, docKey(store.Movements, 1234))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), id)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/storetest"
)

func TestGateway(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway { return New() })
}

func TestReturnedDataIsCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	data := []byte(`{"a":1}`)
	id, err := s.Create(ctx, store.Users, data)
	require.NoError(t, err)
	data[2] = 'b'

	doc, err := s.Get(ctx, store.Users, id)
	require.NoError(t, err)
	doc.Data[2] = 'c'

	again, err := s.Get(ctx, store.Users, id)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again.Data))
}

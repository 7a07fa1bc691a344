//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/storetest"
	"github.com/kelleyneubauer/rest-between-sets/internal/testsupport"
)

func TestRepositoryGateway(t *testing.T) {
	ctx := context.Background()
	dsn := testsupport.StartPostgres(ctx, t)

	storetest.Run(t, func(t *testing.T) store.Gateway {
		repo, err := Connect(ctx, dsn)
		require.NoError(t, err)
		_, err = repo.pool.Exec(ctx, `TRUNCATE documents`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}

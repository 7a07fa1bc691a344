// Package postgres implements store.Gateway on a PostgreSQL jsonb table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id BIGSERIAL NOT NULL,
    data JSONB NOT NULL,
    PRIMARY KEY (collection, id)
)`

// Repository stores every collection in a single documents table.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Gateway = (*Repository)(nil)

// Connect opens a pool for dsn and ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	repo := NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// NewRepository constructs a Repository over an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the documents table.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// Create implements store.Gateway.
func (r *Repository) Create(ctx context.Context, c store.Collection, data []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2) RETURNING id`,
		string(c), data).Scan(&id)
	if err != nil {
		return 0, store.Unavailable(err)
	}
	return id, nil
}

// Get implements store.Gateway.
func (r *Repository) Get(ctx context.Context, c store.Collection, id int64) (store.Document, error) {
	if err := store.CheckKey(c, id); err != nil {
		return store.Document{}, err
	}
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection=$1 AND id=$2`,
		string(c), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, store.NotFound(c, id)
	}
	if err != nil {
		return store.Document{}, store.Unavailable(err)
	}
	return store.Document{ID: id, Data: data}, nil
}

// List implements store.Gateway using keyset pagination on id.
func (r *Repository) List(ctx context.Context, c store.Collection, opts store.ListOptions) (store.Page, error) {
	after, err := store.DecodeCursor(c, opts.Cursor)
	if err != nil {
		return store.Page{}, err
	}

	query := `SELECT id, data FROM documents WHERE collection=$1 AND id>$2 ORDER BY id`
	args := []any{string(c), after}
	if opts.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, opts.Limit+1)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return store.Page{}, store.Unavailable(err)
	}
	defer rows.Close()

	var page store.Page
	for rows.Next() {
		var doc store.Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return store.Page{}, store.Unavailable(err)
		}
		page.Items = append(page.Items, doc)
	}
	if err := rows.Err(); err != nil {
		return store.Page{}, store.Unavailable(err)
	}

	if opts.Limit > 0 && len(page.Items) > opts.Limit {
		page.Items = page.Items[:opts.Limit]
		page.NextCursor = store.EncodeCursor(c, page.Items[opts.Limit-1].ID)
	}
	return page, nil
}

// Update implements store.Gateway.
func (r *Repository) Update(ctx context.Context, c store.Collection, id int64, data []byte) error {
	return r.Apply(ctx, []store.Mutation{store.UpdateOf(c, id, data)})
}

// Delete implements store.Gateway.
func (r *Repository) Delete(ctx context.Context, c store.Collection, id int64) error {
	return r.Apply(ctx, []store.Mutation{store.DeleteOf(c, id)})
}

// Apply runs the mutations inside one transaction.
func (r *Repository) Apply(ctx context.Context, muts []store.Mutation) (err error) {
	for _, m := range muts {
		if err := store.CheckKey(m.Collection, m.ID); err != nil {
			return err
		}
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.Unavailable(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, m := range muts {
		var tag pgconn.CommandTag
		switch m.Op {
		case store.OpUpdate:
			tag, err = tx.Exec(ctx, `UPDATE documents SET data=$3 WHERE collection=$1 AND id=$2`, string(m.Collection), m.ID, m.Data)
		case store.OpDelete:
			tag, err = tx.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, string(m.Collection), m.ID)
		default:
			err = fmt.Errorf("unsupported mutation %v", m.Op)
		}
		if err != nil {
			return store.Unavailable(err)
		}
		if tag.RowsAffected() == 0 {
			err = store.NotFound(m.Collection, m.ID)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return store.Unavailable(err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Package memory is an in-process Gateway for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

type collection struct {
	nextID int64
	docs   map[int64][]byte
}

// Store keeps documents in maps guarded by a single lock.
type Store struct {
	mu          sync.RWMutex
	collections map[store.Collection]*collection
}

var _ store.Gateway = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	return &Store{collections: make(map[store.Collection]*collection)}
}

// coll must be called with mu held for writing when create is true.
func (s *Store) coll(c store.Collection, create bool) *collection {
	col, ok := s.collections[c]
	if !ok && create {
		col = &collection{docs: make(map[int64][]byte)}
		s.collections[c] = col
	}
	return col
}

// Create implements store.Gateway.
func (s *Store) Create(ctx context.Context, c store.Collection, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.coll(c, true)
	col.nextID++
	col.docs[col.nextID] = clone(data)
	return col.nextID, nil
}

// Get implements store.Gateway.
func (s *Store) Get(ctx context.Context, c store.Collection, id int64) (store.Document, error) {
	if err := store.CheckKey(c, id); err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.coll(c, false)
	if col == nil {
		return store.Document{}, store.NotFound(c, id)
	}
	data, ok := col.docs[id]
	if !ok {
		return store.Document{}, store.NotFound(c, id)
	}
	return store.Document{ID: id, Data: clone(data)}, nil
}

// List implements store.Gateway.
func (s *Store) List(ctx context.Context, c store.Collection, opts store.ListOptions) (store.Page, error) {
	after, err := store.DecodeCursor(c, opts.Cursor)
	if err != nil {
		return store.Page{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.coll(c, false)
	if col == nil {
		return store.Page{}, nil
	}
	ids := make([]int64, 0, len(col.docs))
	for id := range col.docs {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var page store.Page
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
		page.NextCursor = store.EncodeCursor(c, ids[len(ids)-1])
	}
	page.Items = make([]store.Document, 0, len(ids))
	for _, id := range ids {
		page.Items = append(page.Items, store.Document{ID: id, Data: clone(col.docs[id])})
	}
	return page, nil
}

// Update implements store.Gateway.
func (s *Store) Update(ctx context.Context, c store.Collection, id int64, data []byte) error {
	return s.Apply(ctx, []store.Mutation{store.UpdateOf(c, id, data)})
}

// Delete implements store.Gateway.
func (s *Store) Delete(ctx context.Context, c store.Collection, id int64) error {
	return s.Apply(ctx, []store.Mutation{store.DeleteOf(c, id)})
}

// Apply validates every mutation before writing any of them.
func (s *Store) Apply(ctx context.Context, muts []store.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Later mutations may target records deleted earlier in the batch.
	deleted := make(map[store.Collection]map[int64]bool)
	for _, m := range muts {
		if err := store.CheckKey(m.Collection, m.ID); err != nil {
			return err
		}
		col := s.coll(m.Collection, false)
		if col == nil || deleted[m.Collection][m.ID] {
			return store.NotFound(m.Collection, m.ID)
		}
		if _, ok := col.docs[m.ID]; !ok {
			return store.NotFound(m.Collection, m.ID)
		}
		if m.Op == store.OpDelete {
			if deleted[m.Collection] == nil {
				deleted[m.Collection] = make(map[int64]bool)
			}
			deleted[m.Collection][m.ID] = true
		}
	}
	for _, m := range muts {
		col := s.coll(m.Collection, false)
		switch m.Op {
		case store.OpUpdate:
			col.docs[m.ID] = clone(m.Data)
		case store.OpDelete:
			delete(col.docs, m.ID)
		}
	}
	return nil
}

// Close implements store.Gateway.
func (s *Store) Close() error { return nil }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

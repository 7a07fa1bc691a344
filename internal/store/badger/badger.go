// Package badger implements store.Gateway on an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

const (
	docPrefix    = "doc/"
	seqPrefix    = "seq/"
	seqBandwidth = 100
	idDigits     = 19
)

// Config configures the on-disk location. An empty Path keeps everything in memory.
type Config struct {
	Path string
}

// Store persists documents as JSON values keyed by collection and ID.
type Store struct {
	db *badger.DB

	mu   sync.Mutex
	seqs map[store.Collection]*badger.Sequence
}

var _ store.Gateway = (*Store)(nil)

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{logging.With().Str("component", "badger").Logger()})
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, seqs: make(map[store.Collection]*badger.Sequence)}, nil
}

func docKey(c store.Collection, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%0*d", docPrefix, c, idDigits, id))
}

func collPrefix(c store.Collection) []byte {
	return []byte(docPrefix + string(c) + "/")
}

func idFromKey(c store.Collection, key []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(string(key), string(collPrefix(c))), 10, 64)
}

func (s *Store) sequence(c store.Collection) (*badger.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.seqs[c]; ok {
		return seq, nil
	}
	seq, err := s.db.GetSequence([]byte(seqPrefix+string(c)), seqBandwidth)
	if err != nil {
		return nil, err
	}
	s.seqs[c] = seq
	return seq, nil
}

// Create implements store.Gateway.
func (s *Store) Create(ctx context.Context, c store.Collection, data []byte) (int64, error) {
	seq, err := s.sequence(c)
	if err != nil {
		return 0, store.Unavailable(err)
	}
	n, err := seq.Next()
	if err != nil {
		return 0, store.Unavailable(err)
	}
	id := int64(n) + 1
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(c, id), data)
	})
	if err != nil {
		return 0, store.Unavailable(err)
	}
	return id, nil
}

// Get implements store.Gateway.
func (s *Store) Get(ctx context.Context, c store.Collection, id int64) (store.Document, error) {
	if err := store.CheckKey(c, id); err != nil {
		return store.Document{}, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(c, id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.Document{}, store.NotFound(c, id)
	}
	if err != nil {
		return store.Document{}, store.Unavailable(err)
	}
	return store.Document{ID: id, Data: data}, nil
}

// List implements store.Gateway.
func (s *Store) List(ctx context.Context, c store.Collection, opts store.ListOptions) (store.Page, error) {
	after, err := store.DecodeCursor(c, opts.Cursor)
	if err != nil {
		return store.Page{}, err
	}
	prefix := collPrefix(c)
	var page store.Page
	err = s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Prefix = prefix
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Seek(docKey(c, after+1)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id, err := idFromKey(c, item.Key())
			if err != nil {
				return err
			}
			if opts.Limit > 0 && len(page.Items) == opts.Limit {
				page.NextCursor = store.EncodeCursor(c, page.Items[len(page.Items)-1].ID)
				return nil
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			page.Items = append(page.Items, store.Document{ID: id, Data: data})
		}
		return nil
	})
	if err != nil {
		return store.Page{}, store.Unavailable(err)
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

// Apply runs every mutation in one read-write transaction.
func (s *Store) Apply(ctx context.Context, muts []store.Mutation) error {
	for _, m := range muts {
		if err := store.CheckKey(m.Collection, m.ID); err != nil {
			return err
		}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, m := range muts {
			key := docKey(m.Collection, m.ID)
			if _, err := txn.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return store.NotFound(m.Collection, m.ID)
				}
				return err
			}
			switch m.Op {
			case store.OpUpdate:
				if err := txn.Set(key, m.Data); err != nil {
					return err
				}
			case store.OpDelete:
				if err := txn.Delete(key); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported mutation %v", m.Op)
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return &store.Error{Kind: store.KindConflict, Err: err}
	}
	return store.Unavailable(err)
}

// Close releases sequences and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	for c, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			logging.Warn().Err(err).Str("collection", string(c)).Msg("release sequence")
		}
		delete(s.seqs, c)
	}
	s.mu.Unlock()
	return s.db.Close()
}

// badgerLogger routes badger's logger through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}

package domain

import (
	"context"

	"github.com/kelleyneubauer/rest-between-sets/internal/observability"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// PageSize is the number of owned records returned per listing page.
const PageSize = 5

// ListMovements returns one page of the subject's movements starting at cursor.
func (s *Service) ListMovements(ctx context.Context, subject, cursor string) (Page[Movement], error) {
	return listOwned[Movement](ctx, s.store, subject, cursor)
}

// ListExercises returns one page of the subject's exercises starting at cursor.
func (s *Service) ListExercises(ctx context.Context, subject, cursor string) (Page[Exercise], error) {
	return listOwned[Exercise](ctx, s.store, subject, cursor)
}

// listOwned fills a page with PageSize records owned by subject. The store
// mixes every owner's records, so when a page comes back short the whole page
// is refetched from the same cursor with the limit raised by one, until it
// holds PageSize owned records or the store has nothing further.
func listOwned[T any, P interface {
	*T
	linked
}](ctx context.Context, gw store.Gateway, subject, cursor string) (Page[T], error) {
	c := P(new(T)).collection()

	all, err := gw.List(ctx, c, store.ListOptions{})
	if err != nil {
		return Page[T]{}, translate(err)
	}
	total := 0
	for _, doc := range all.Items {
		rec := P(new(T))
		if err := decode(doc, rec); err != nil {
			return Page[T]{}, err
		}
		if rec.owner() == subject {
			total++
		}
	}

	limit := PageSize
	expansions := 0
	for {
		page, err := gw.List(ctx, c, store.ListOptions{Limit: limit, Cursor: cursor})
		if err != nil {
			return Page[T]{}, translate(err)
		}
		items := make([]T, 0, PageSize)
		for _, doc := range page.Items {
			rec := P(new(T))
			if err := decode(doc, rec); err != nil {
				return Page[T]{}, err
			}
			if rec.owner() == subject {
				items = append(items, *rec)
			}
		}
		if !page.More() || len(items) >= PageSize {
			observability.RecordPaginationExpansions(string(c), expansions)
			return Page[T]{Total: total, Items: items, NextCursor: page.NextCursor}, nil
		}
		limit++
		expansions++
	}
}

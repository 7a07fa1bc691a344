package domain

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kelleyneubauer/rest-between-sets/internal/events"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	page, err := s.store.List(ctx, store.Users, store.ListOptions{})
	if err != nil {
		return nil, translate(err)
	}
	users := make([]User, 0, len(page.Items))
	for _, doc := range page.Items {
		var u User
		if err := json.Unmarshal(doc.Data, &u); err != nil {
			return nil, fmt.Errorf("decode %s/%d: %w", store.Users, doc.ID, err)
		}
		u.ID = doc.ID
		users = append(users, u)
	}
	return users, nil
}

// EnsureUser registers subject on first sign-in. The boolean reports whether
// a record was created.
func (s *Service) EnsureUser(ctx context.Context, subject, email string) (User, bool, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if u.UserID == subject {
			return u, false, nil
		}
	}

	u := User{Email: email, UserID: subject, CreatedAt: s.now().UTC()}
	data, err := encode(u)
	if err != nil {
		return User{}, false, err
	}
	id, err := s.store.Create(ctx, store.Users, data)
	if err != nil {
		return User{}, false, err
	}
	u.ID = id
	s.recordChanged(ctx, events.TypeCreated, store.Users, id, subject)
	return u, true, nil
}

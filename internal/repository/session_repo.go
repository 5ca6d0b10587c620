package repository

import (
	"context"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/storage"
)

// SessionRepository stores the identity under the individual session keys.
type SessionRepository interface {
	Load(ctx context.Context) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
	ClearToken(ctx context.Context) error
	Clear(ctx context.Context) error
}

type LocalSessionRepository struct {
	store storage.Store
}

func NewSessionRepository(store storage.Store) SessionRepository {
	return &LocalSessionRepository{store: store}
}

func (r *LocalSessionRepository) Load(ctx context.Context) (domain.User, error) {
	var user domain.User
	token, _, err := r.store.Get(ctx, KeyToken)
	if err != nil {
		return user, err
	}
	name, _, err := r.store.Get(ctx, KeyUsername)
	if err != nil {
		return user, err
	}
	id, _, err := r.store.Get(ctx, KeyUserID)
	if err != nil {
		return user, err
	}
	user.Token = string(token)
	user.Username = string(name)
	if len(id) > 0 {
		user.ID = domain.ParseID(string(id))
	}
	return user, nil
}

func (r *LocalSessionRepository) Save(ctx context.Context, user domain.User) error {
	if err := r.store.Set(ctx, KeyToken, []byte(user.Token)); err != nil {
		return err
	}
	if err := r.store.Set(ctx, KeyUsername, []byte(user.Username)); err != nil {
		return err
	}
	return r.store.Set(ctx, KeyUserID, []byte(user.ID.String()))
}

func (r *LocalSessionRepository) ClearToken(ctx context.Context) error {
	return r.store.Delete(ctx, KeyToken)
}

func (r *LocalSessionRepository) Clear(ctx context.Context) error {
	for _, key := range []string{KeyToken, KeyUsername, KeyUserID} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

var _ SessionRepository = (*LocalSessionRepository)(nil)

package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/storage"
)

var ErrDuplicateAccount = errors.New("username or email already registered")

// AccountRepository is the offline "users" collection.
type AccountRepository interface {
	Find(ctx context.Context, username string) (*domain.LocalAccount, error)
	Create(ctx context.Context, account domain.LocalAccount) error
}

type LocalAccountRepository struct {
	store storage.Store
}

func NewAccountRepository(store storage.Store) AccountRepository {
	return &LocalAccountRepository{store: store}
}

func (r *LocalAccountRepository) Find(ctx context.Context, username string) (*domain.LocalAccount, error) {
	data, exists, err := r.store.Get(ctx, KeyUsers)
	if err != nil {
		return nil, err
	}
	accounts, err := decodeCollection[domain.LocalAccount](KeyUsers, data, exists)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Username == username {
			return &accounts[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *LocalAccountRepository) Create(ctx context.Context, account domain.LocalAccount) error {
	return r.store.Update(ctx, KeyUsers, func(current []byte, exists bool) ([]byte, error) {
		accounts, err := decodeCollection[domain.LocalAccount](KeyUsers, current, exists)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			if a.Username == account.Username || strings.EqualFold(a.Email, account.Email) {
				return nil, ErrDuplicateAccount
			}
		}
		return encodeCollection(append(accounts, account))
	})
}

var _ AccountRepository = (*LocalAccountRepository)(nil)

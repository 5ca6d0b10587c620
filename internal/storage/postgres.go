package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is used when the gateway runs on a server next to the venue database.
type PGStore struct {
	db        *pgxpool.Pool
	namespace string
}

func NewPGStore(db *pgxpool.Pool, namespace string) *PGStore {
	return &PGStore{db: db, namespace: namespace}
}

func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS local_kv (
			namespace  TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			value      BYTEA       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, key)
		)`)
	if err != nil {
		return fmt.Errorf("migrate local_kv: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.get(ctx, s.db, key)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PGStore) get(ctx context.Context, q queryRower, key string) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRow(ctx, `SELECT value FROM local_kv WHERE namespace=$1 AND key=$2`, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

const upsertKV = `
	INSERT INTO local_kv (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

func (s *PGStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, upsertKV, s.namespace, key, value)
	return err
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM local_kv WHERE namespace=$1 AND key=$2`, s.namespace, key)
	return err
}

// Update serializes writers of the same key with a transaction-scoped
// advisory lock, which also covers keys that do not exist yet.
func (s *PGStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.namespace+":"+key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	current, exists, err := s.get(ctx, tx, key)
	if err != nil {
		return err
	}
	next, err := fn(current, exists)
	if err != nil {
		return err
	}
	if next == nil {
		next = []byte{}
	}
	if _, err := tx.Exec(ctx, upsertKV, s.namespace, key, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

var _ Store = (*PGStore)(nil)

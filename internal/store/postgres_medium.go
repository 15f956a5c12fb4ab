package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset of *pgxpool.Pool used by PostgresMedium.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresMedium stores documents in the documents(key, body) table.
type PostgresMedium struct {
	pool pgxQuerier
}

// NewPostgresMedium creates a medium backed by a pgx pool.
func NewPostgresMedium(pool pgxQuerier) *PostgresMedium {
	return &PostgresMedium{pool: pool}
}

// Get returns the document under key.
func (m *PostgresMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `SELECT body FROM documents WHERE key = $1`
	var body []byte
	err := m.pool.QueryRow(ctx, q, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set overwrites the document under key.
func (m *PostgresMedium) Set(ctx context.Context, key string, doc []byte) error {
	const q = `INSERT INTO documents (key, body, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`
	_, err := m.pool.Exec(ctx, q, key, string(doc))
	return err
}

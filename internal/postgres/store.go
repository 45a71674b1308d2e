// Package postgres provides a PostgreSQL record store for deployments that
// outgrow a single SQLite file.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements service.Storage on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ service.Storage = (*Store)(nil)

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%w: database url", common.ErrMissingConfig)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", kind, id, err)
}

// query accumulates WHERE clauses and numbered placeholders.
type query struct {
	where []string
	args  []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *query) eq(column string, v any) {
	q.where = append(q.where, column+" = "+q.arg(v))
}

func (q *query) build(base, order string, limit, offset int) string {
	sql := base
	if len(q.where) > 0 {
		sql += " WHERE " + strings.Join(q.where, " AND ")
	}
	sql += " ORDER BY " + order
	if limit > 0 {
		sql += " LIMIT " + q.arg(limit)
	}
	if offset > 0 {
		sql += " OFFSET " + q.arg(offset)
	}
	return sql
}

// Package pg is a Postgres document store: one JSONB document per row,
// plus the few extracted columns that need a unique constraint.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/config"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to db", "component", "storage", "host", cfg.Private.Pg.Host)
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to db", "component", "storage")
	return &Storage{db: db}, nil
}

func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Private.Pg.Host, cfg.Private.Pg.Port, cfg.Private.Pg.User, cfg.Private.Pg.Password, cfg.Private.Pg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func encode(doc any) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return b, nil
}

func getDoc[T any](ctx context.Context, q querier, what, query string, args ...any) (T, error) {
	var (
		doc T
		raw []byte
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, internal_errors.NotFound(what + " not found")
	}
	if err != nil {
		return doc, fmt.Errorf("failed to get %s: %w", what, err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return doc, nil
}

func listDocs[T any](ctx context.Context, q querier, what, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", what, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return docs, nil
}

// mutateDoc locks one row, applies fn to its document and writes it back.
// table is always a constant from this package.
func mutateDoc[T any](ctx context.Context, s *Storage, table, what, id string, fn func(*T) error) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc, err := getDoc[T](ctx, tx, what, "SELECT doc FROM "+table+" WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return zero, err
	}
	if err := fn(&doc); err != nil {
		return zero, err
	}
	b, err := encode(&doc)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET doc = $2 WHERE id = $1", id, b); err != nil {
		return zero, fmt.Errorf("failed to update %s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s update: %w", what, err)
	}
	return doc, nil
}

// deleteRows runs a DELETE and maps zero affected rows to NotFound.
func deleteRows(ctx context.Context, q querier, what, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	if n == 0 {
		return internal_errors.NotFound(what + " not found")
	}
	return nil
}

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	txcontext "lifeline/pkg/platform/tx"
)

// PostgresStore implements Store against the inventory table (one row per
// blood type). Atomicity per type comes from conditional single-statement
// updates; the database serializes writers on the row lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Adjust(ctx context.Context, bt domain.BloodType, delta int) (int, error) {
	// The WHERE clause rejects underflow without a read-modify-write race.
	query := `
		UPDATE inventory
		SET units = units + $2, updated_at = $3
		WHERE blood_type = $1 AND units + $2 >= 0
		RETURNING units
	`
	var units int
	err := s.execer(ctx).QueryRowContext(ctx, query, string(bt), delta, time.Now()).Scan(&units)
	if errors.Is(err, sql.ErrNoRows) {
		// Row exists (seeded at migration) so no-rows means the guard fired.
		if _, getErr := s.Get(ctx, bt); errors.Is(getErr, sentinel.ErrNotFound) {
			return 0, sentinel.ErrNotFound
		}
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("adjust inventory: %w", err)
	}
	return units, nil
}

func (s *PostgresStore) Get(ctx context.Context, bt domain.BloodType) (Entry, error) {
	query := `SELECT blood_type, units, temperature, updated_at FROM inventory WHERE blood_type = $1`
	var (
		e         Entry
		bloodType string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, string(bt)).
		Scan(&bloodType, &e.Units, &e.Temperature, &e.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get inventory entry: %w", err)
	}
	e.BloodType = domain.BloodType(bloodType)
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	query := `SELECT blood_type, units, temperature, updated_at FROM inventory ORDER BY blood_type`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			bloodType string
		)
		if err := rows.Scan(&bloodType, &e.Units, &e.Temperature, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		e.BloodType = domain.BloodType(bloodType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return entries, nil
}

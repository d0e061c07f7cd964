package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	txcontext "lifeline/pkg/platform/tx"
)

// PostgresStore implements Store against the blood_requests table.
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

const requestColumns = `id, hospital_name, blood_type, units_needed, units_fulfilled,
	urgency, latitude, longitude, status, created_by, created_at, fulfilled_at`

func (s *PostgresStore) Save(ctx context.Context, r BloodRequest) error {
	query := `
		INSERT INTO blood_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			units_fulfilled = EXCLUDED.units_fulfilled,
			status = EXCLUDED.status,
			fulfilled_at = EXCLUDED.fulfilled_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.HospitalName, string(r.BloodType), r.UnitsNeeded,
		r.UnitsFulfilled, string(r.Urgency), r.Latitude, r.Longitude,
		string(r.Status), r.CreatedBy, r.CreatedAt, r.FulfilledAt,
	)
	if err != nil {
		return fmt.Errorf("save blood request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequestID) (BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`
	return scanRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE status = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("query blood requests: %w", err)
	}
	defer rows.Close()

	var out []BloodRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blood_requests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blood requests: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (BloodRequest, error) {
	var (
		r         BloodRequest
		id        uuid.UUID
		bloodType string
		urgency   string
		status    string
	)
	err := row.Scan(&id, &r.HospitalName, &bloodType, &r.UnitsNeeded, &r.UnitsFulfilled,
		&urgency, &r.Latitude, &r.Longitude, &status, &r.CreatedBy, &r.CreatedAt, &r.FulfilledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return BloodRequest{}, sentinel.ErrNotFound
	}
	if err != nil {
		return BloodRequest{}, fmt.Errorf("scan blood request: %w", err)
	}
	r.ID = domain.RequestID(id)
	r.BloodType = domain.BloodType(bloodType)
	r.Urgency = domain.Urgency(urgency)
	r.Status = Status(status)
	return r, nil
}

package donor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	txcontext "lifeline/pkg/platform/tx"
)

// PostgresStore implements Store against the donors table.
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

const donorColumns = `id, user_id, name, email, phone, blood_type, latitude, longitude,
	last_donation, total_donations, points, badges, available, created_at`

func (s *PostgresStore) Save(ctx context.Context, d Donor) error {
	query := `
		INSERT INTO donors (` + donorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			blood_type = EXCLUDED.blood_type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			available = EXCLUDED.available
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(d.ID), d.UserID, d.Name, d.Email, d.Phone, string(d.BloodType),
		d.Latitude, d.Longitude, d.LastDonation, d.TotalDonations, d.Points,
		pq.Array(d.Badges), d.Available, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.DonorID) (Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	return s.scanDonor(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) ListAvailable(ctx context.Context) ([]Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE available`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query available donors: %w", err)
	}
	defer rows.Close()
	return s.scanDonors(rows)
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, id domain.DonorID, lat, lon float64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE donors SET latitude = $2, longitude = $3 WHERE id = $1`,
		uuid.UUID(id), lat, lon,
	)
	if err != nil {
		return fmt.Errorf("update donor location: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetAvailability(ctx context.Context, id domain.DonorID, available bool) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE donors SET available = $2 WHERE id = $1`,
		uuid.UUID(id), available,
	)
	if err != nil {
		return fmt.Errorf("update donor availability: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Credit(ctx context.Context, id domain.DonorID, donatedAt time.Time) (Donor, error) {
	// Badge recomputation happens in Go; the store re-reads the row under the
	// same statement so totals and badges cannot drift apart.
	query := `
		UPDATE donors SET
			last_donation = $2,
			total_donations = total_donations + 1,
			points = points + $3
		WHERE id = $1
		RETURNING ` + donorColumns
	d, err := s.scanDonor(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id), donatedAt, PointsPerDonation))
	if err != nil {
		return Donor{}, err
	}
	d.Badges = earnedBadges(d.TotalDonations)
	if _, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE donors SET badges = $2 WHERE id = $1`,
		uuid.UUID(id), pq.Array(d.Badges),
	); err != nil {
		return Donor{}, fmt.Errorf("update donor badges: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) TopByPoints(ctx context.Context, limit int) ([]Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors ORDER BY points DESC, id ASC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()
	return s.scanDonors(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanDonor(row rowScanner) (Donor, error) {
	var (
		d         Donor
		id        uuid.UUID
		bloodType string
		badges    pq.StringArray
	)
	err := row.Scan(&id, &d.UserID, &d.Name, &d.Email, &d.Phone, &bloodType,
		&d.Latitude, &d.Longitude, &d.LastDonation, &d.TotalDonations,
		&d.Points, &badges, &d.Available, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Donor{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Donor{}, fmt.Errorf("scan donor: %w", err)
	}
	d.ID = domain.DonorID(id)
	d.BloodType = domain.BloodType(bloodType)
	d.Badges = badges
	return d, nil
}

func (s *PostgresStore) scanDonors(rows *sql.Rows) ([]Donor, error) {
	var donors []Donor
	for rows.Next() {
		d, err := s.scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donors: %w", err)
	}
	return donors, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

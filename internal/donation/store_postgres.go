package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	txcontext "lifeline/pkg/platform/tx"
)

// PostgresStore implements Store against the donations table.
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

const donationColumns = `id, donor_id, request_id, blood_type, units, donated_at, block_index, created_at`

func (s *PostgresStore) Save(ctx context.Context, d Donation) error {
	// DO NOTHING keeps the first write authoritative; recovery re-saves must
	// not reset an already bound block index.
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(d.ID), uuid.UUID(d.DonorID), uuid.UUID(d.RequestID),
		string(d.BloodType), d.Units, d.DonatedAt, d.BlockIndex, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.DonationID) (Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	return s.scanDonation(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = $1 ORDER BY donated_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query donor donations: %w", err)
	}
	defer rows.Close()
	return s.scanDonations(rows)
}

func (s *PostgresStore) ListPendingLedger(ctx context.Context) ([]Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE block_index < 0 ORDER BY donated_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending donations: %w", err)
	}
	defer rows.Close()
	return s.scanDonations(rows)
}

func (s *PostgresStore) BindBlock(ctx context.Context, id domain.DonationID, blockIndex int64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE donations SET block_index = $2 WHERE id = $1`,
		uuid.UUID(id), blockIndex,
	)
	if err != nil {
		return fmt.Errorf("bind donation block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donated_at >= $1 ORDER BY donated_at ASC`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query donations since: %w", err)
	}
	defer rows.Close()
	return s.scanDonations(rows)
}

func (s *PostgresStore) Totals(ctx context.Context) (int, int, error) {
	var count, units int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(units), 0) FROM donations`,
	).Scan(&count, &units)
	if err != nil {
		return 0, 0, fmt.Errorf("query donation totals: %w", err)
	}
	return count, units, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanDonation(row rowScanner) (Donation, error) {
	var (
		d                      Donation
		id, donorID, requestID uuid.UUID
		bloodType              string
	)
	err := row.Scan(&id, &donorID, &requestID, &bloodType, &d.Units,
		&d.DonatedAt, &d.BlockIndex, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Donation{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Donation{}, fmt.Errorf("scan donation: %w", err)
	}
	d.ID = domain.DonationID(id)
	d.DonorID = domain.DonorID(donorID)
	d.RequestID = domain.RequestID(requestID)
	d.BloodType = domain.BloodType(bloodType)
	return d, nil
}

func (s *PostgresStore) scanDonations(rows *sql.Rows) ([]Donation, error) {
	var donations []Donation
	for rows.Next() {
		d, err := s.scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return donations, nil
}

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lifeline/pkg/platform/sentinel"
)

// PostgresStore implements Store against the ledger_blocks table. The table's
// primary key is the block index; a concurrent append racing on the same tail
// hits the unique constraint and surfaces as ErrStaleTail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const blockColumns = `index, payload, timestamp, prev_hash, nonce, difficulty, hash`

func (s *PostgresStore) AppendAfter(ctx context.Context, b Block) error {
	// The INSERT..SELECT only produces a row when the claimed parent is still
	// the tail, so linkage and index uniqueness are checked in one statement.
	query := `
		INSERT INTO ledger_blocks (` + blockColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE COALESCE(
			(SELECT hash FROM ledger_blocks ORDER BY index DESC LIMIT 1),
			$8
		) = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		b.Index, b.Payload, b.Timestamp, b.PrevHash, b.Nonce, b.Difficulty, b.Hash,
		GenesisPrevHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrStaleTail
		}
		return fmt.Errorf("append ledger block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append ledger block rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrStaleTail
	}
	return nil
}

func (s *PostgresStore) Tail(ctx context.Context) (Block, error) {
	query := `SELECT ` + blockColumns + ` FROM ledger_blocks ORDER BY index DESC LIMIT 1`
	return scanBlock(s.db.QueryRowContext(ctx, query))
}

func (s *PostgresStore) Get(ctx context.Context, index int64) (Block, error) {
	query := `SELECT ` + blockColumns + ` FROM ledger_blocks WHERE index = $1`
	return scanBlock(s.db.QueryRowContext(ctx, query, index))
}

func (s *PostgresStore) List(ctx context.Context) ([]Block, error) {
	query := `SELECT ` + blockColumns + ` FROM ledger_blocks ORDER BY index ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ledger blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger blocks: %w", err)
	}
	return blocks, nil
}

func (s *PostgresStore) Length(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_blocks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger blocks: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (Block, error) {
	var b Block
	err := row.Scan(&b.Index, &b.Payload, &b.Timestamp, &b.PrevHash, &b.Nonce, &b.Difficulty, &b.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Block{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Block{}, fmt.Errorf("scan ledger block: %w", err)
	}
	return b, nil
}

package donation

import (
	"context"
	"time"

	"lifeline/pkg/domain"
)

// Store persists donations. Save is idempotent on the donation id so retried
// commits and recovery re-runs never duplicate a transaction.
type Store interface {
	Save(ctx context.Context, d Donation) error
	Get(ctx context.Context, id domain.DonationID) (Donation, error)
	// ListByDonor returns a donor's history, newest first.
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]Donation, error)
	// ListPendingLedger returns donations whose block append has not landed,
	// oldest first, so recovery preserves commit order.
	ListPendingLedger(ctx context.Context) ([]Donation, error)
	// BindBlock records the ledger block index for a donation.
	BindBlock(ctx context.Context, id domain.DonationID, blockIndex int64) error
	// ListSince returns donations with donated_at >= since, used by the
	// statistics projection.
	ListSince(ctx context.Context, since time.Time) ([]Donation, error)
	// Totals returns the all-time donation count and unit sum.
	Totals(ctx context.Context) (count int, units int, err error)
}

package donor

import (
	"context"
	"time"

	"lifeline/pkg/domain"
)

// Store persists donors. Implementations return sentinel.ErrNotFound for
// missing donors; the service translates to coded errors.
type Store interface {
	Save(ctx context.Context, d Donor) error
	Get(ctx context.Context, id domain.DonorID) (Donor, error)
	// ListAvailable returns donors currently flagged available, in no
	// particular order. Matching re-filters and ranks the result.
	ListAvailable(ctx context.Context) ([]Donor, error)
	// UpdateLocation and SetAvailability touch only the donor's own row.
	UpdateLocation(ctx context.Context, id domain.DonorID, lat, lon float64) error
	SetAvailability(ctx context.Context, id domain.DonorID, available bool) error
	// Credit applies the per-donation reward in one write: last donation
	// timestamp, incremented totals, recomputed badge set.
	Credit(ctx context.Context, id domain.DonorID, donatedAt time.Time) (Donor, error)
	// TopByPoints returns up to limit donors ordered by points descending,
	// donor id ascending on ties, so the leaderboard is deterministic.
	TopByPoints(ctx context.Context, limit int) ([]Donor, error)
}

package inventory

import (
	"context"

	"lifeline/pkg/domain"
)

// Store persists per-blood-type unit counts.
//
// Adjust must be atomic per blood type: concurrent adjustments to the same
// type serialize, and an adjustment that would drive units negative fails with
// sentinel.ErrConflict leaving the count untouched. Adjustments to different
// types proceed independently.
type Store interface {
	Adjust(ctx context.Context, bt domain.BloodType, delta int) (int, error)
	Get(ctx context.Context, bt domain.BloodType) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
}

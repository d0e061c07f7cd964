package request

import (
	"context"

	"lifeline/pkg/domain"
)

// Store persists blood requests. Serialization of transitions is the
// Service's job; stores only read and write whole records.
type Store interface {
	Save(ctx context.Context, r BloodRequest) error
	Get(ctx context.Context, id domain.RequestID) (BloodRequest, error)
	// ListByStatus returns requests in the given state, newest first.
	ListByStatus(ctx context.Context, status Status) ([]BloodRequest, error)
	Count(ctx context.Context) (int, error)
}

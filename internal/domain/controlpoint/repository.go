package controlpoint

import (
	"context"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Repository stores control point statuses. SaveStatus fails with
// contest.ErrConflict on a version mismatch and with contest.ErrStaleEvent
// when the write would move the change time backwards.
type Repository interface {
	GetStatus(ctx context.Context, key contest.RecordKey) (Status, bool, error)
	SaveStatus(ctx context.Context, status Status) error
	ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]Status, error)
}

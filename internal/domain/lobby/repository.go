package lobby

import (
	"context"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

type ConfigRepository interface {
	GetConfig(ctx context.Context, objectID contest.ObjectID) (Config, bool, error)
	UpsertConfig(ctx context.Context, cfg Config) error
}

// StatusRepository stores epoch-keyed lobby statuses. SaveStatus follows the
// same rules as the hill store: claimed records are sealed, versions must
// match and only the configured epoch is writable.
type StatusRepository interface {
	GetStatus(ctx context.Context, key contest.RecordKey) (Status, bool, error)
	SaveStatus(ctx context.Context, status Status) error
	ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]Status, error)
	ListActive(ctx context.Context) ([]Status, error)
}

type Repository interface {
	ConfigRepository
	StatusRepository
}

package hill

import (
	"context"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// ConfigRepository stores one hill config per object. UpsertConfig refuses an
// epoch that does not follow the stored one with contest.ErrStaleEvent.
type ConfigRepository interface {
	GetConfig(ctx context.Context, objectID contest.ObjectID) (Config, bool, error)
	UpsertConfig(ctx context.Context, cfg Config) error
}

// StatusRepository stores epoch-keyed hill statuses. SaveStatus must refuse to
// overwrite a status that is already claimed, must fail with
// contest.ErrConflict when the stored version differs from status.Version and
// with contest.ErrEpochNotCurrent when the config names another epoch.
type StatusRepository interface {
	GetStatus(ctx context.Context, key contest.RecordKey) (Status, bool, error)
	SaveStatus(ctx context.Context, status Status) error
	ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]Status, error)
}

type Repository interface {
	ConfigRepository
	StatusRepository
}

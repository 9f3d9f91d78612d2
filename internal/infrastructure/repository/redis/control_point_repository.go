package redis

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/controlpoint"
)

const controlPointKind = "point"

type ControlPointRepository struct {
	store
}

func NewControlPointRepository(client goredis.UniversalClient) *ControlPointRepository {
	return &ControlPointRepository{store: store{client: client}}
}

func (r *ControlPointRepository) GetStatus(ctx context.Context, key contest.RecordKey) (controlpoint.Status, bool, error) {
	raw, err := r.get(ctx, statusKey(controlPointKind, key))
	if err != nil || raw == nil {
		return controlpoint.Status{}, false, err
	}

	var rec controlPointRecord
	if err := decode(raw, &rec); err != nil {
		return controlpoint.Status{}, false, err
	}
	return rec.domain(), true, nil
}

// SaveStatus rejects a write based on another version or older than the
// stored change time.
func (r *ControlPointRepository) SaveStatus(ctx context.Context, status controlpoint.Status) error {
	rec := controlPointToRecord(status)
	rec.Version++
	payload, err := encode(rec)
	if err != nil {
		return err
	}

	key := status.Key()
	return r.putGuarded(ctx, guardedWrite{
		key:      statusKey(controlPointKind, key),
		indexKey: epochsKey(controlPointKind, key.ObjectID),
		member:   epochMember(key.Epoch),
		payload:  payload,
		guard: func(current, _ []byte) error {
			var stored controlPointRecord
			if current != nil {
				if err := decode(current, &stored); err != nil {
					return err
				}
			}
			if err := contest.CheckVersion(key, stored.Version, status.Version); err != nil {
				return err
			}
			if stored.LastChangeTime > uint64(status.LastChangeTime) {
				return crerr.Wrapf(contest.ErrStaleEvent, "control point %s", key)
			}
			return nil
		},
	})
}

func (r *ControlPointRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]controlpoint.Status, error) {
	epochs, err := r.members(ctx, epochsKey(controlPointKind, objectID))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(epochs))
	for _, member := range epochs {
		keys = append(keys, memberStatusKey(controlPointKind, objectID, member))
	}
	raws, err := r.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]controlpoint.Status, 0, len(raws))
	for _, raw := range raws {
		var rec controlPointRecord
		if err := decode(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec.domain())
	}
	return out, nil
}

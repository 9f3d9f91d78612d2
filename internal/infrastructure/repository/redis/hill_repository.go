package redis

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
)

const hillKind = "hill"

type HillRepository struct {
	store
}

func NewHillRepository(client goredis.UniversalClient) *HillRepository {
	return &HillRepository{store: store{client: client}}
}

func (r *HillRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (hill.Config, bool, error) {
	raw, err := r.get(ctx, configKey(hillKind, objectID))
	if err != nil || raw == nil {
		return hill.Config{}, false, err
	}

	var rec hillConfigRecord
	if err := decode(raw, &rec); err != nil {
		return hill.Config{}, false, err
	}
	return rec.domain(), true, nil
}

func (r *HillRepository) UpsertConfig(ctx context.Context, cfg hill.Config) error {
	payload, err := encode(hillConfigToRecord(cfg))
	if err != nil {
		return err
	}
	return r.putConfig(ctx, configKey(hillKind, cfg.ObjectID), payload, cfg.EpochStart)
}

func (r *HillRepository) GetStatus(ctx context.Context, key contest.RecordKey) (hill.Status, bool, error) {
	raw, err := r.get(ctx, statusKey(hillKind, key))
	if err != nil || raw == nil {
		return hill.Status{}, false, err
	}

	var rec hillStatusRecord
	if err := decode(raw, &rec); err != nil {
		return hill.Status{}, false, err
	}
	return rec.domain(), true, nil
}

// SaveStatus watches the status and the config so a claimed record, a newer
// version and a replaced epoch all veto the write.
func (r *HillRepository) SaveStatus(ctx context.Context, status hill.Status) error {
	rec := hillStatusToRecord(status)
	rec.Version++
	payload, err := encode(rec)
	if err != nil {
		return err
	}

	key := status.Key()
	return r.putGuarded(ctx, guardedWrite{
		key:      statusKey(hillKind, key),
		fenceKey: configKey(hillKind, key.ObjectID),
		indexKey: epochsKey(hillKind, key.ObjectID),
		member:   epochMember(key.Epoch),
		payload:  payload,
		guard: func(current, fence []byte) error {
			if err := storedEpoch(fence, key); err != nil {
				return err
			}
			var stored hillStatusRecord
			if current != nil {
				if err := decode(current, &stored); err != nil {
					return err
				}
			}
			if stored.Claimed {
				return crerr.Wrapf(contest.ErrAlreadyClaimed, "hill %s", key)
			}
			return contest.CheckVersion(key, stored.Version, status.Version)
		},
	})
}

func (r *HillRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]hill.Status, error) {
	epochs, err := r.members(ctx, epochsKey(hillKind, objectID))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(epochs))
	for _, member := range epochs {
		keys = append(keys, memberStatusKey(hillKind, objectID, member))
	}
	raws, err := r.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]hill.Status, 0, len(raws))
	for _, raw := range raws {
		var rec hillStatusRecord
		if err := decode(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec.domain())
	}
	return out, nil
}

package redis

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

type PayoutRepository struct {
	store
}

func NewPayoutRepository(client goredis.UniversalClient) *PayoutRepository {
	return &PayoutRepository{store: store{client: client}}
}

// Append stores the intent once per (source, object, epoch). The index entry
// is scored by creation time.
func (r *PayoutRepository) Append(ctx context.Context, intent payout.Intent) error {
	payload, err := encode(payoutToRecord(intent))
	if err != nil {
		return err
	}

	key := payoutKey(intent.Source, intent.Key())
	written, err := r.client.SetNX(ctx, key, payload, 0).Result()
	if err != nil {
		return crerr.Wrapf(err, "append payout %s", key)
	}
	if !written {
		return crerr.Wrapf(contest.ErrAlreadyClaimed, "payout for %s %s already recorded", intent.Source, intent.Key())
	}

	err = r.client.ZAdd(ctx, payoutIndexKey(intent.ObjectID), goredis.Z{
		Score:  float64(intent.CreatedAt.UnixNano()),
		Member: key,
	}).Err()
	if err != nil {
		return crerr.Wrapf(err, "index payout %s", key)
	}
	return nil
}

func (r *PayoutRepository) ListByObject(ctx context.Context, objectID contest.ObjectID) ([]payout.Intent, error) {
	keys, err := r.client.ZRange(ctx, payoutIndexKey(objectID), 0, -1).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "list payouts for %s", objectID)
	}
	raws, err := r.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]payout.Intent, 0, len(raws))
	for _, raw := range raws {
		var rec payoutRecord
		if err := decode(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec.domain())
	}
	return out, nil
}

func (r payoutRecord) domain() payout.Intent {
	return payout.Intent{
		ID:          r.ID,
		Source:      payout.Source(r.Source),
		ObjectID:    contest.ObjectID(r.ObjectID),
		Epoch:       accrual.Timestamp(r.EpochStart),
		Recipient:   contest.PlayerID(r.Recipient),
		TriggeredBy: contest.PlayerID(r.TriggeredBy),
		ItemID:      contest.ItemID(r.ItemID),
		Amount:      r.Amount,
		CreatedAt:   time.Unix(0, r.CreatedAt).UTC(),
	}
}

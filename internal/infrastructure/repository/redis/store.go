package redis

import (
	"context"
	"errors"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

type store struct {
	client goredis.UniversalClient
}

// get returns nil bytes when key is missing.
func (s store) get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "get %s", key)
	}
	return raw, nil
}

// guardedWrite is one SET under WATCH. fenceKey, when set, is watched too and
// must share the hash tag of key. guard sees both current values, nil when
// missing, and may veto the write.
type guardedWrite struct {
	key      string
	fenceKey string
	indexKey string
	member   string
	payload  []byte
	guard    func(current, fence []byte) error
}

// putGuarded writes payload to key and indexes member in indexKey inside one
// MULTI block. A WATCH abort is retried so the guard can judge the newer
// value; a record that keeps moving ends in contest.ErrConflict.
func (s store) putGuarded(ctx context.Context, w guardedWrite) error {
	watched := []string{w.key}
	if w.fenceKey != "" {
		watched = append(watched, w.fenceKey)
	}

	txn := func(tx *goredis.Tx) error {
		current, err := watchedValue(ctx, tx, w.key)
		if err != nil {
			return err
		}
		var fence []byte
		if w.fenceKey != "" {
			if fence, err = watchedValue(ctx, tx, w.fenceKey); err != nil {
				return err
			}
		}
		if w.guard != nil {
			if err := w.guard(current, fence); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, w.key, w.payload, 0)
			if w.indexKey != "" {
				pipe.ZAdd(ctx, w.indexKey, goredis.Z{Score: 0, Member: w.member})
			}
			return nil
		})
		return err
	}

	var err error
	for range maxWatchRetries {
		err = s.client.Watch(ctx, txn, watched...)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, goredis.TxFailedErr) {
		return crerr.Wrapf(contest.ErrConflict, "concurrent write on %s", w.key)
	}
	return err
}

// putConfig replaces a config only when its epoch moves forward.
func (s store) putConfig(ctx context.Context, key string, payload []byte, epoch contest.Epoch) error {
	return s.putGuarded(ctx, guardedWrite{
		key:     key,
		payload: payload,
		guard: func(current, _ []byte) error {
			if current == nil {
				return nil
			}
			var rec configEpochRecord
			if err := decode(current, &rec); err != nil {
				return err
			}
			if uint64(epoch) <= rec.EpochStart {
				return crerr.Wrapf(contest.ErrStaleEvent, "config %s epoch %d does not follow %d", key, epoch, rec.EpochStart)
			}
			return nil
		},
	})
}

func watchedValue(ctx context.Context, tx *goredis.Tx, key string) ([]byte, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "watch %s", key)
	}
	return raw, nil
}

// storedEpoch decodes the epoch of a config value. A missing config does not
// fence.
func storedEpoch(raw []byte, key contest.RecordKey) error {
	if raw == nil {
		return nil
	}
	var rec configEpochRecord
	if err := decode(raw, &rec); err != nil {
		return err
	}
	return contest.CheckEpoch(key, accrual.Timestamp(rec.EpochStart))
}

// members lists an epoch index newest first.
func (s store) members(ctx context.Context, indexKey string) ([]string, error) {
	items, err := s.client.ZRevRangeByLex(ctx, indexKey, &goredis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "list %s", indexKey)
	}
	return items, nil
}

func (s store) getMany(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, crerr.Wrap(err, "mget records")
	}

	out := make([][]byte, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case string:
			out = append(out, []byte(v))
		case []byte:
			out = append(out, v)
		}
	}
	return out, nil
}

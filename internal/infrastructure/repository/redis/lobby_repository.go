package redis

import (
	"context"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
)

const lobbyKind = "lobby"

type LobbyRepository struct {
	store
}

func NewLobbyRepository(client goredis.UniversalClient) *LobbyRepository {
	return &LobbyRepository{store: store{client: client}}
}

func (r *LobbyRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (lobby.Config, bool, error) {
	raw, err := r.get(ctx, configKey(lobbyKind, objectID))
	if err != nil || raw == nil {
		return lobby.Config{}, false, err
	}

	var rec lobbyConfigRecord
	if err := decode(raw, &rec); err != nil {
		return lobby.Config{}, false, err
	}
	return rec.domain(), true, nil
}

func (r *LobbyRepository) UpsertConfig(ctx context.Context, cfg lobby.Config) error {
	payload, err := encode(lobbyConfigToRecord(cfg))
	if err != nil {
		return err
	}
	return r.putConfig(ctx, configKey(lobbyKind, cfg.ObjectID), payload, cfg.EpochStart)
}

func (r *LobbyRepository) GetStatus(ctx context.Context, key contest.RecordKey) (lobby.Status, bool, error) {
	raw, err := r.get(ctx, statusKey(lobbyKind, key))
	if err != nil || raw == nil {
		return lobby.Status{}, false, err
	}

	var rec lobbyStatusRecord
	if err := decode(raw, &rec); err != nil {
		return lobby.Status{}, false, err
	}
	return rec.domain(), true, nil
}

// SaveStatus writes the status under WATCH of the status and config keys and
// then maintains the global active index, which lives in a different slot.
func (r *LobbyRepository) SaveStatus(ctx context.Context, status lobby.Status) error {
	rec := lobbyStatusToRecord(status)
	rec.Version++
	payload, err := encode(rec)
	if err != nil {
		return err
	}

	key := status.Key()
	err = r.putGuarded(ctx, guardedWrite{
		key:      statusKey(lobbyKind, key),
		fenceKey: configKey(lobbyKind, key.ObjectID),
		indexKey: epochsKey(lobbyKind, key.ObjectID),
		member:   epochMember(key.Epoch),
		payload:  payload,
		guard: func(current, fence []byte) error {
			if err := storedEpoch(fence, key); err != nil {
				return err
			}
			var stored lobbyStatusRecord
			if current != nil {
				if err := decode(current, &stored); err != nil {
					return err
				}
			}
			if stored.Claimed {
				return crerr.Wrapf(contest.ErrAlreadyClaimed, "lobby %s", key)
			}
			return contest.CheckVersion(key, stored.Version, status.Version)
		},
	})
	if err != nil {
		return err
	}

	if status.IsActive {
		err = r.client.SAdd(ctx, activeLobbies, activeMember(key)).Err()
	} else {
		err = r.client.SRem(ctx, activeLobbies, activeMember(key)).Err()
	}
	if err != nil {
		return crerr.Wrapf(err, "update active lobby index for %s", key)
	}
	return nil
}

func (r *LobbyRepository) ListStatuses(ctx context.Context, objectID contest.ObjectID) ([]lobby.Status, error) {
	epochs, err := r.members(ctx, epochsKey(lobbyKind, objectID))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(epochs))
	for _, member := range epochs {
		keys = append(keys, memberStatusKey(lobbyKind, objectID, member))
	}
	raws, err := r.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]lobby.Status, 0, len(raws))
	for _, raw := range raws {
		var rec lobbyStatusRecord
		if err := decode(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec.domain())
	}
	return out, nil
}

// ListActive reads each indexed status separately since they span slots.
func (r *LobbyRepository) ListActive(ctx context.Context) ([]lobby.Status, error) {
	members, err := r.client.SMembers(ctx, activeLobbies).Result()
	if err != nil {
		return nil, crerr.Wrap(err, "list active lobbies")
	}

	out := make([]lobby.Status, 0, len(members))
	for _, member := range members {
		key, err := parseActiveMember(member)
		if err != nil {
			return nil, err
		}
		status, ok, err := r.GetStatus(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok && status.IsActive {
			out = append(out, status)
		}
	}
	return out, nil
}

func parseActiveMember(member string) (contest.RecordKey, error) {
	epochRaw, objectID, ok := strings.Cut(member, "|")
	if !ok || objectID == "" {
		return contest.RecordKey{}, crerr.Newf("malformed active lobby member %q", member)
	}
	epoch, err := strconv.ParseUint(epochRaw, 10, 64)
	if err != nil {
		return contest.RecordKey{}, crerr.Wrapf(err, "parse active lobby epoch %q", epochRaw)
	}
	return contest.RecordKey{ObjectID: contest.ObjectID(objectID), Epoch: accrual.Timestamp(epoch)}, nil
}

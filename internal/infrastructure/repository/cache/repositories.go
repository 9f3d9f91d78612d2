package cache

import (
	"context"
	"errors"
	"slices"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/hill"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	basecache "github.com/riskibarqy/contested-territory/internal/platform/cache"
)

// HillRepository caches hill configs. Statuses always go to the next repository.
type HillRepository struct {
	hill.StatusRepository

	next  hill.Repository
	cache *basecache.Store
}

func NewHillRepository(next hill.Repository, cache *basecache.Store) *HillRepository {
	return &HillRepository{StatusRepository: next, next: next, cache: cache}
}

func (r *HillRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (hill.Config, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, hillConfigKey(objectID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetConfig(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return cachedHillConfig{value: item, exists: exists}, nil
	})
	if err != nil {
		return hill.Config{}, false, err
	}

	cached, _ := v.(cachedHillConfig)
	return cached.value, cached.exists, nil
}

func (r *HillRepository) UpsertConfig(ctx context.Context, cfg hill.Config) error {
	if err := r.next.UpsertConfig(ctx, cfg); err != nil {
		return err
	}
	r.cache.Delete(ctx, hillConfigKey(cfg.ObjectID))
	return nil
}

// SaveStatus drops the cached config when the store reports that another
// instance has moved the hill to a newer epoch.
func (r *HillRepository) SaveStatus(ctx context.Context, status hill.Status) error {
	err := r.next.SaveStatus(ctx, status)
	if errors.Is(err, contest.ErrEpochNotCurrent) {
		r.cache.Delete(ctx, hillConfigKey(status.ObjectID))
	}
	return err
}

type cachedHillConfig struct {
	value  hill.Config
	exists bool
}

func hillConfigKey(objectID contest.ObjectID) string {
	return "hill:config:" + string(objectID)
}

// LobbyRepository caches lobby configs. Statuses always go to the next repository.
type LobbyRepository struct {
	lobby.StatusRepository

	next  lobby.Repository
	cache *basecache.Store
}

func NewLobbyRepository(next lobby.Repository, cache *basecache.Store) *LobbyRepository {
	return &LobbyRepository{StatusRepository: next, next: next, cache: cache}
}

func (r *LobbyRepository) GetConfig(ctx context.Context, objectID contest.ObjectID) (lobby.Config, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, lobbyConfigKey(objectID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetConfig(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return cachedLobbyConfig{value: item, exists: exists}, nil
	})
	if err != nil {
		return lobby.Config{}, false, err
	}

	cached, _ := v.(cachedLobbyConfig)
	out := cached.value
	out.ControlPointIDs = slices.Clone(cached.value.ControlPointIDs)
	return out, cached.exists, nil
}

func (r *LobbyRepository) UpsertConfig(ctx context.Context, cfg lobby.Config) error {
	if err := r.next.UpsertConfig(ctx, cfg); err != nil {
		return err
	}
	r.cache.Delete(ctx, lobbyConfigKey(cfg.ObjectID))
	return nil
}

func (r *LobbyRepository) SaveStatus(ctx context.Context, status lobby.Status) error {
	err := r.next.SaveStatus(ctx, status)
	if errors.Is(err, contest.ErrEpochNotCurrent) {
		r.cache.Delete(ctx, lobbyConfigKey(status.ObjectID))
	}
	return err
}

type cachedLobbyConfig struct {
	value  lobby.Config
	exists bool
}

func lobbyConfigKey(objectID contest.ObjectID) string {
	return "lobby:config:" + string(objectID)
}
